package apiver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkw-go/vkw/apiver"
)

func TestVersion_Parse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    apiver.Version
		wantErr bool
	}{
		{"full triple", "1.2.3", apiver.New(1, 2, 3), false},
		{"major minor only", "1.2", apiver.New(1, 2, 0), false},
		{"v prefix", "v1.3", apiver.New(1, 3, 0), false},
		{"garbage", "not-a-version", apiver.Version{}, true},
		{"empty", "", apiver.Version{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := apiver.Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVersion_Ordering(t *testing.T) {
	t.Parallel()

	assert.True(t, apiver.New(1, 0, 0).Less(apiver.New(1, 1, 0)))
	assert.True(t, apiver.New(1, 1, 5).Less(apiver.New(1, 2, 0)))
	assert.False(t, apiver.New(1, 2, 0).Less(apiver.New(1, 2, 0)))
	assert.True(t, apiver.New(1, 2, 0).AtLeast(apiver.New(1, 2, 0)))
	assert.True(t, apiver.New(2, 0, 0).AtLeast(apiver.New(1, 3, 0)))
	assert.Equal(t, 0, apiver.New(1, 2, 3).Compare(apiver.New(1, 2, 3)))
	assert.Equal(t, -1, apiver.New(1, 2, 3).Compare(apiver.New(1, 2, 4)))
	assert.Equal(t, 1, apiver.New(1, 3, 0).Compare(apiver.New(1, 2, 9)))
}

func TestVersion_MajorMinor_DropsPatch(t *testing.T) {
	t.Parallel()

	assert.Equal(t, apiver.New(1, 2, 0), apiver.New(1, 2, 131).MajorMinor())
}

func TestVersion_Encoded_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []apiver.Version{
		apiver.New(1, 0, 0),
		apiver.New(1, 3, 250),
		apiver.New(2, 0, 1),
	}
	for _, v := range tests {
		assert.Equal(t, v, apiver.FromEncoded(v.Encoded()), v.String())
	}
}

func TestVersion_Encoded_KnownLayout(t *testing.T) {
	t.Parallel()

	// 1.2.0 packs to (1<<22)|(2<<12).
	assert.Equal(t, uint32(1<<22|2<<12), apiver.New(1, 2, 0).Encoded())
}

func TestVersion_Satisfies(t *testing.T) {
	t.Parallel()

	ok, err := apiver.New(1, 2, 0).Satisfies(">=1.1 <1.4")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = apiver.New(1, 0, 0).Satisfies(">=1.1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = apiver.New(1, 0, 0).Satisfies(">>bogus")
	require.Error(t, err)
}
