package adapters

type BuiltInAdapterType = string

const (
	LocalAdapterType BuiltInAdapterType = "local"
	FileAdapterType  BuiltInAdapterType = "file"
	HTTPAdapterType  BuiltInAdapterType = "http"
	HTTPSAdapterType BuiltInAdapterType = "https"
)

// RegisterBuiltins registers all built-in backends on the default registry
// or only the specific ones if keys are provided
func RegisterBuiltins(adapters ...BuiltInAdapterType) {
	registerBuiltins(defaultRegistry, adapters...)
}

func registerBuiltins(r *Registry, adapters ...BuiltInAdapterType) {
	if len(adapters) == 0 {
		adapters = append(adapters, LocalAdapterType, FileAdapterType, HTTPAdapterType, HTTPSAdapterType)
	}

	for _, key := range adapters {
		switch key {
		case LocalAdapterType, FileAdapterType:
			r.Register(key, openLocal)
		case HTTPAdapterType, HTTPSAdapterType:
			r.Register(key, openHTTP)
		}
	}
}
