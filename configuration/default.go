package configuration

import "github.com/furkanonder/glassjar/database"

func Default() Configuration {
	return Configuration{
		File: database.DefaultPath,
	}
}
