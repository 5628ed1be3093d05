package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/golang/glog"
)

const maxEventLine = 1024 * 1024

// StreamEvents opens a server-sent event stream and calls onMessage for each
// event until the server closes the stream or ctx ends. It returns true when
// the server closed the stream cleanly and false on any transport error,
// error status, or cancellation.
func (c *Client) StreamEvents(ctx context.Context, endpoint string, onMessage func(Event)) bool {
	if c == nil {
		return false
	}
	rel, err := url.Parse(endpoint)
	if err != nil {
		glog.Warningf("[api]stream %s: parse endpoint: %v", endpoint, err)
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.ResolveReference(rel).String(), nil)
	if err != nil {
		glog.Warningf("[api]stream %s: create request: %v", endpoint, err)
		return false
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.stream.Do(req)
	if err != nil {
		glog.Warningf("[api]stream %s: %v", endpoint, err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		glog.Warningf("[api]stream %s returned status %d", endpoint, resp.StatusCode)
		return false
	}

	if err := readEvents(resp.Body, onMessage); err != nil {
		if ctx.Err() == nil {
			glog.Warningf("[api]stream %s: %v", endpoint, err)
		}
		return false
	}
	return ctx.Err() == nil
}

// StreamSuggestions streams model-suggested tags for one image.
func (c *Client) StreamSuggestions(ctx context.Context, project, image string, onSuggestion func(Suggestion)) bool {
	return c.StreamEvents(ctx, imagePath(project, image, "autotag"), func(ev Event) {
		if ev.Type != "" && ev.Type != "message" && ev.Type != "suggestion" {
			return
		}
		var s Suggestion
		if err := json.Unmarshal([]byte(ev.Data), &s); err != nil {
			glog.V(1).Infof("[api]skip suggestion %q: %v", ev.Data, err)
			return
		}
		if strings.TrimSpace(s.Tag) == "" {
			return
		}
		onSuggestion(s)
	})
}

// readEvents parses the text/event-stream framing: fields accumulate until a
// blank line dispatches the event; lines starting with ':' are comments.
func readEvents(r io.Reader, onMessage func(Event)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventLine)

	var ev Event
	var data []string
	dispatch := func() {
		if len(data) == 0 && ev.Type == "" {
			return
		}
		ev.Data = strings.Join(data, "\n")
		onMessage(ev)
		ev = Event{ID: ev.ID}
		data = data[:0]
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			dispatch()
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			ev.Type = value
		case "data":
			data = append(data, value)
		case "id":
			ev.ID = value
		}
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("read stream: %w", err)
	}
	// A final event without a trailing blank line is discarded, per the
	// event-stream format.
	return nil
}
