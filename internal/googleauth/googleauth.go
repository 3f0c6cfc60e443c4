// Package googleauth builds client options for Google APIs from service
// account settings.
package googleauth

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"google.golang.org/api/option"
)

// Options returns client options authenticating with the service account in
// saJSON or, failing that, the file at saFile. With neither set, the client
// falls back to Application Default Credentials.
func Options(ctx context.Context, saJSON, saFile string, scopes ...string) ([]option.ClientOption, error) {
	saJSON = strings.TrimSpace(saJSON)
	saFile = strings.TrimSpace(saFile)

	opts := []option.ClientOption{option.WithScopes(scopes...)}

	switch {
	case saJSON != "":
		slog.DebugContext(ctx, "Using inline service account credentials")
		opts = append(opts, option.WithCredentialsJSON([]byte(saJSON)))
	case saFile != "":
		b, err := os.ReadFile(saFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.DebugContext(ctx, "Using service account credentials file", "path", saFile)
		opts = append(opts, option.WithCredentialsJSON(b))
	default:
		slog.DebugContext(ctx, "No service account configured, using application default credentials")
	}

	return opts, nil
}
