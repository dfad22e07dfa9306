package preflight

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"wastetwin/internal/catalog"
)

const ntfyProbeTimeout = 5 * time.Second

// CheckLogDir verifies the directory holding wastetwin.log and the daemon's
// lock and pid files can be written.
func CheckLogDir(path string) Result {
	r := Result{Name: "Log directory"}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		r.Detail = path + " does not exist; run the daemon once or create it"
	case err != nil:
		r.Detail = fmt.Sprintf("%s: %v", path, err)
	case !info.IsDir():
		r.Detail = path + " is not a directory"
	default:
		if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
			r.Detail = fmt.Sprintf("%s not writable: %v", path, err)
			break
		}
		r.Passed = true
		r.Detail = path
	}
	return r
}

// CheckCatalog loads the category catalog: the YAML override at path, or the
// built-in table when path is empty. The catalog is returned on success.
func CheckCatalog(path string) (*catalog.Catalog, Result) {
	r := Result{Name: "Catalog"}
	source := "built-in"
	if path != "" {
		source = path
		if err := unix.Access(path, unix.R_OK); err != nil {
			r.Detail = fmt.Sprintf("%s not readable: %v", path, err)
			return nil, r
		}
	}
	cat, err := catalog.Load(path)
	if err != nil {
		r.Detail = err.Error()
		return nil, r
	}
	r.Passed = true
	r.Detail = fmt.Sprintf("%s, %d categories, %d materials", source, cat.Len(), len(cat.Materials()))
	return cat, r
}

// CheckComposition reports catalog categories with no composition entry;
// those have no hazard score on the composition endpoint.
func CheckComposition(cat *catalog.Catalog) Result {
	r := Result{Name: "Composition table"}
	var missing []string
	for _, id := range cat.IDs() {
		if _, ok := catalog.LookupComposition(id); !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		r.Detail = "no composition for " + strings.Join(missing, ", ")
		return r
	}
	r.Passed = true
	r.Detail = fmt.Sprintf("all %d categories covered", cat.Len())
	return r
}

// CheckNtfy verifies that the ntfy server behind topic answers HTTP.
func CheckNtfy(ctx context.Context, topic string) Result {
	r := Result{Name: "ntfy"}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		r.Detail = "missing topic"
		return r
	}

	ctx, cancel := context.WithTimeout(ctx, ntfyProbeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, topic, nil)
	if err != nil {
		r.Detail = fmt.Sprintf("invalid topic url: %v", err)
		return r
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		r.Detail = describeHTTPError(err)
		return r
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		r.Detail = fmt.Sprintf("server error (%d)", resp.StatusCode)
		return r
	}
	r.Passed = true
	r.Detail = "reachable"
	return r
}

func describeHTTPError(err error) string {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return "request timed out"
	}
	return err.Error()
}
