package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sipa-dev/sipa/pkg/component"
)

type fixture struct {
	eng    *component.Engine
	srv    *Server
	http   *httptest.Server
	cancel context.CancelFunc
	items  *component.Type
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := component.NewEngine(component.Config{Logger: logger})
	items := eng.Register(component.Define("TodoItem", func(a component.Attributes) (string, error) {
		return fmt.Sprintf("<span>%v</span>", a["label"]), nil
	}, component.WithDefaults(component.Attributes{"label": ""})))

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "sipa_test_total", Help: "test"}))

	srv := New(eng, Options{Version: "v1.2.3", Gatherer: reg, Timeout: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	go eng.Run(ctx)

	f := &fixture{eng: eng, srv: srv, http: httptest.NewServer(srv.Handler()), cancel: cancel, items: items}
	t.Cleanup(func() {
		f.srv.Hub().Close()
		f.http.Close()
		f.cancel()
	})
	return f
}

func (f *fixture) do(t *testing.T, fn func()) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := f.eng.Do(ctx, fn); err != nil {
		t.Fatalf("Do: %v", err)
	}
}

func (f *fixture) get(t *testing.T, path string, dst any) int {
	t.Helper()
	resp, err := http.Get(f.http.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

func TestVersion(t *testing.T) {
	f := newFixture(t)

	var info BuildInfo
	if code := f.get(t, "/version", &info); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if info.Version != "v1.2.3" {
		t.Errorf("Version = %q", info.Version)
	}
	if info.GoVersion == "" || info.OS == "" || info.Arch == "" {
		t.Errorf("incomplete build info: %+v", info)
	}
}

func TestInstances(t *testing.T) {
	f := newFixture(t)

	var first, second *component.Instance
	f.do(t, func() {
		first = f.items.MustNew(component.Attributes{"label": "milk"}, component.WithClasses("done"))
		second = f.items.MustNew(component.Attributes{"label": "eggs"}, component.WithAlias("eggs"))
	})

	var list []InstanceInfo
	if code := f.get(t, "/instances", &list); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var ids []uint64
	for _, i := range list {
		ids = append(ids, i.ID)
	}
	if diff := cmp.Diff([]uint64{first.ID(), second.ID()}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
	if list[0].Markup != "" {
		t.Errorf("list carries markup: %q", list[0].Markup)
	}
	if list[0].Attributes["label"] != "milk" {
		t.Errorf("label = %v", list[0].Attributes["label"])
	}
	if diff := cmp.Diff([]string{"done"}, list[0].Classes); diff != "" {
		t.Errorf("classes mismatch (-want +got):\n%s", diff)
	}
	if list[1].Alias != "eggs" {
		t.Errorf("alias = %q", list[1].Alias)
	}

	var one InstanceInfo
	if code := f.get(t, fmt.Sprintf("/instances/%d", second.ID()), &one); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if one.Type != "todo-item" || !strings.Contains(one.Markup, "eggs") {
		t.Errorf("detail = %+v", one)
	}
}

func TestInstanceErrors(t *testing.T) {
	f := newFixture(t)

	var body errorBody
	if code := f.get(t, "/instances/nope", &body); code != http.StatusBadRequest {
		t.Errorf("bad id status = %d", code)
	}
	if code := f.get(t, "/instances/999", &body); code != http.StatusNotFound {
		t.Errorf("missing status = %d", code)
	}
	if !strings.Contains(body.Error, "999") {
		t.Errorf("error = %q", body.Error)
	}
}

func TestJSONValue(t *testing.T) {
	f := newFixture(t)

	var child *component.Instance
	f.do(t, func() {
		child = f.items.MustNew(component.Attributes{"label": "x"})
	})

	got := jsonValue(component.Attributes{
		"ref":     child,
		"members": []*component.Instance{child, nil},
		"n":       3,
		"fn":      func() {},
	})
	want := map[string]any{
		"ref":     map[string]uint64{"instance": child.ID()},
		"members": map[string][]uint64{"instances": {child.ID()}},
		"n":       3,
		"fn":      "",
	}
	out := got.(map[string]any)
	if s, ok := out["fn"].(string); !ok || s == "" {
		t.Errorf("fn = %#v, want printed form", out["fn"])
	}
	out["fn"] = ""
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("jsonValue mismatch (-want +got):\n%s", diff)
	}
}

func TestMetrics(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.http.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "sipa_test_total") {
		t.Errorf("metrics output missing counter:\n%s", body)
	}
}

func TestLive(t *testing.T) {
	f := newFixture(t)

	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() LiveMessage {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg LiveMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		return msg
	}

	if msg := read(); msg.Type != LiveHello {
		t.Fatalf("first message = %+v", msg)
	}
	if n := f.srv.Hub().ClientCount(); n != 1 {
		t.Errorf("ClientCount = %d", n)
	}

	var item *component.Instance
	f.do(t, func() {
		item = f.items.MustNew(component.Attributes{"label": "a"})
	})
	// construction reports the created transition and the first render
	var kinds []LiveMessageType
	for len(kinds) < 2 {
		msg := read()
		if msg.ID != item.ID() {
			t.Fatalf("message for %d, want %d", msg.ID, item.ID())
		}
		kinds = append(kinds, msg.Type)
	}
	if !contains(kinds, LiveCreated) || !contains(kinds, LiveRender) {
		t.Errorf("kinds = %v", kinds)
	}

	f.do(t, func() {
		item.Update(component.Attributes{"label": "b"})
	})
	msg := read()
	if msg.Type != LiveRender || msg.Component != "todo-item" {
		t.Errorf("update message = %+v", msg)
	}
	if msg.Patches == 0 {
		t.Errorf("render reported no patches")
	}
}

func contains(list []LiveMessageType, t LiveMessageType) bool {
	for _, x := range list {
		if x == t {
			return true
		}
	}
	return false
}
