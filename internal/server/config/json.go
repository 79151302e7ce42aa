package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/tsiory-dev/garagesync/internal/flagx"
	"github.com/tsiory-dev/garagesync/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "10s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config
// struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddrHTTP       string         `json:"endpoint_addr_http"`
	DatabaseDSN            string         `json:"database_dsn"`
	FirestoreProjectID     string         `json:"firestore_project_id"`
	FirestoreKeyPath       string         `json:"firestore_key_path"`
	RemoteCallTimeout      timex.Duration `json:"remote_call_timeout"`
	SyncInterval           timex.Duration `json:"sync_interval"`
	DefaultPaymentMethod   string         `json:"default_payment_method"`
	DefaultPaymentPhone    string         `json:"default_payment_phone"`
	DefaultPaymentProvider string         `json:"default_payment_provider"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The lookup order for the JSON file path is:
//
//	The -c or -config command-line flags.
//	If it is not set, no JSON file is loaded.
//
// If the file path is found, parseJson attempts to read and unmarshal it
// into a JsonConfig. The resulting values are copied into the target Config.
// If the file cannot be read or contains invalid JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.DatabaseDSN = c.DatabaseDSN
	config.FirestoreProjectID = c.FirestoreProjectID
	config.FirestoreKeyPath = c.FirestoreKeyPath
	config.RemoteCallTimeout = time.Duration(c.RemoteCallTimeout.Duration)
	config.SyncInterval = time.Duration(c.SyncInterval.Duration)
	config.DefaultPaymentMethod = c.DefaultPaymentMethod
	config.DefaultPaymentPhone = c.DefaultPaymentPhone
	config.DefaultPaymentProvider = c.DefaultPaymentProvider
}
