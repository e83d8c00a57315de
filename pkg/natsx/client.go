package natsx

import (
	"os"

	"github.com/nats-io/nats.go"
)

// ClientName is the connection name reported to the NATS server.
const ClientName = "evctx"

// NewClient creates a new connection to the NATS server at url. An empty url
// falls back to the NATS_URL environment variable and then to
// nats.DefaultURL. Without options the connection is named ClientName and
// uses compression.
//
// Parameters:
//   - url: The server URL, possibly a comma separated list of servers.
//   - opts: Connection options replacing the defaults.
//
// Returns:
//   - *nats.Conn: A pointer to the established NATS connection.
//   - error: An error if the connection could not be established.
func NewClient(url string, opts ...nats.Option) (*nats.Conn, error) {
	if len(opts) == 0 {
		opts = append(opts, nats.Name(ClientName), nats.Compression(true))
	}
	return nats.Connect(ServerURL(url), opts...)
}

// ServerURL resolves the server URL the way NewClient does.
func ServerURL(url string) string {
	if url != "" {
		return url
	}
	if env := os.Getenv("NATS_URL"); env != "" {
		return env
	}
	return nats.DefaultURL
}
