package capability

import "github.com/vkw-go/vkw/fault"

// Layer identifies an interception/validation layer. Layers live in a
// namespace disjoint from extensions: they are negotiated through a separate
// native call and enabled independently.
type Layer int

const (
	LayerKhronosValidation Layer = iota
	LayerLunargAPIDump
	LayerLunargMonitor
	layerCount
)

var layerNames = [layerCount]string{
	LayerKhronosValidation: "VK_LAYER_KHRONOS_validation",
	LayerLunargAPIDump:     "VK_LAYER_LUNARG_api_dump",
	LayerLunargMonitor:     "VK_LAYER_LUNARG_monitor",
}

// String returns the canonical runtime name of the layer.
func (l Layer) String() string {
	if l < 0 || l >= layerCount {
		return "VK_LAYER_UNKNOWN"
	}
	return layerNames[l]
}

// Valid reports whether l names a registered layer.
func (l Layer) Valid() bool { return l >= 0 && l < layerCount }

// LayerByName translates a canonical name back to its ID.
func LayerByName(name string) (Layer, error) {
	for id, n := range layerNames {
		if n == name {
			return Layer(id), nil
		}
	}
	return 0, &fault.NameError{Kind: "layer", Name: name}
}

// ValidLayerName reports whether name is registered, without the error.
func ValidLayerName(name string) bool {
	_, err := LayerByName(name)
	return err == nil
}

// LayerNames returns the full registered name table, in ID order.
func LayerNames() []string {
	out := make([]string, len(layerNames))
	copy(out, layerNames[:])
	return out
}
