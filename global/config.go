package global

var (
	Version = ""
)

// Configuration holds the parameters that are shared across submodules.
type Configuration struct {
	LogLevel string

	Otel struct {
		Tracing     bool
		ServiceName string
	}

	Blob struct {
		Driver     string
		Directory  string
		Container  string
		Collection string
		Log        string

		S3 struct {
			Region    string
			Endpoint  string
			PathStyle bool
		}

		Azure struct {
			ConnectionString string //nolint:gosec //#gosec G117 -- FP, we don't marshal this object into JSON
		}

		SQLite struct {
			Path string
		}
	}

	Audit struct {
		File    string
		Restore bool
	}

	Edit struct {
		MergePolicy    string
		ConflictPolicy string
		StripLabel     string
	}

	Lock struct {
		Kind string
	}

	Etcd struct {
		Endpoint string
		Username string
		Password string //nolint:gosec //#gosec G117 -- FP, we don't marshal this object into JSON
	}
}

var (
	Conf Configuration
)
