package skills

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// stubFetcher is a canned-response fetch.Fetcher for network-backed skills.
// Responses are matched by URL substring so tests do not hard-code full query
// strings.
type stubFetcher struct {
	responses  map[string]string // URL substring -> body
	getErr     error
	postBody   string
	postErr    error
	headStatus int
	headHeader http.Header
	headErr    error

	gotURLs  []string
	gotPosts []interface{}
}

func (f *stubFetcher) Get(url string) ([]byte, error) {
	f.gotURLs = append(f.gotURLs, url)
	if f.getErr != nil {
		return nil, f.getErr
	}
	for sub, body := range f.responses {
		if strings.Contains(url, sub) {
			return []byte(body), nil
		}
	}
	return nil, fmt.Errorf("HTTP 404: no canned response for %s", url)
}

func (f *stubFetcher) PostJSON(url string, body interface{}) ([]byte, error) {
	f.gotURLs = append(f.gotURLs, url)
	f.gotPosts = append(f.gotPosts, body)
	if f.postErr != nil {
		return nil, f.postErr
	}
	return []byte(f.postBody), nil
}

func (f *stubFetcher) Head(url string) (int, http.Header, error) {
	f.gotURLs = append(f.gotURLs, url)
	if f.headErr != nil {
		return 0, nil, f.headErr
	}
	status := f.headStatus
	if status == 0 {
		status = 200
	}
	return status, f.headHeader, nil
}

// stubRunner is a canned-transcript runner.Runner. Outputs are matched by a
// substring of the joined command line.
type stubRunner struct {
	outputs map[string]string // command substring -> stdout
	stderr  string
	err     error

	gotCommands []string
}

func (r *stubRunner) Run(timeout time.Duration, name string, args ...string) (string, string, error) {
	cmd := name + " " + strings.Join(args, " ")
	r.gotCommands = append(r.gotCommands, cmd)
	if r.err != nil {
		return "", r.stderr, r.err
	}
	for sub, out := range r.outputs {
		if strings.Contains(cmd, sub) {
			return out, r.stderr, nil
		}
	}
	return "", "", nil
}

func (r *stubRunner) LookPath(name string) (string, error) {
	return "/usr/bin/" + name, nil
}
