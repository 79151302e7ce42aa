package config

import (
	"flag"
	"os"
	"time"

	"github.com/tsiory-dev/garagesync/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-p string   Firestore project id
//	-k string   path to the service-account key file
//	-t int      remote call timeout, seconds
//	-i int      background sync interval, seconds (0 disables the ticker)
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers in seconds and then converted
//     to time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-p", "-k", "-t", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.FirestoreProjectID, "p", config.FirestoreProjectID, "Firestore project id")
	fs.StringVar(&config.FirestoreKeyPath, "k", config.FirestoreKeyPath, "service account key file")

	remoteCallTimeout := fs.Int("t", int(config.RemoteCallTimeout.Seconds()), "remote call timeout (in seconds)")
	syncInterval := fs.Int("i", int(config.SyncInterval.Seconds()), "sync interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.RemoteCallTimeout = time.Duration(*remoteCallTimeout) * time.Second
	config.SyncInterval = time.Duration(*syncInterval) * time.Second
}
