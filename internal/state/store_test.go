package state

import (
	"errors"
	"flag"
	"reflect"
	"sync"
	"testing"

	"github.com/five82/tagger/internal/statepath"
	"github.com/five82/tagger/internal/statetree"
)

func init() {
	flag.Set("logtostderr", "true")
	flag.Set("v", "0")
}

type owner struct {
	mu   sync.Mutex
	data map[string]any
}

func newOwner(data map[string]any) *owner {
	return &owner{data: data}
}

func (o *owner) set(key string, value any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.data[key] = value
}

func (o *owner) snapshot() any {
	o.mu.Lock()
	defer o.mu.Unlock()
	dup := make(map[string]any, len(o.data))
	for k, v := range o.data {
		dup[k] = v
	}
	return dup
}

type recorder struct {
	mu      sync.Mutex
	updates []Update
}

func (r *recorder) cb(u Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func (r *recorder) all() []Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Update(nil), r.updates...)
}

func sel(texts ...string) []statepath.Path {
	out := make([]statepath.Path, len(texts))
	for i, text := range texts {
		out[i] = statepath.MustParse(text)
	}
	return out
}

func TestStore_SubscribeDeliversInitialProjection(t *testing.T) {
	o := newOwner(map[string]any{"a": 1, "b": 2})
	s := NewStore("test", o.snapshot)
	var rec recorder

	if err := s.Subscribe("view", rec.cb, sel("a")...); err != nil {
		t.Fatalf("Subscribe returned error: %v", err)
	}
	got := rec.all()
	if len(got) != 1 {
		t.Fatalf("deliveries = %d, want 1 initial delivery", len(got))
	}
	want := statetree.Tree{"a": 1.0}
	if !reflect.DeepEqual(got[0].Data, want) {
		t.Fatalf("initial data = %#v, want %#v", got[0].Data, want)
	}
	if got[0].State != Init || got[0].ID != "view" {
		t.Fatalf("initial update = %+v, want state init id view", got[0])
	}
}

func TestStore_OnlyDeliversWhenSelectedPathsChange(t *testing.T) {
	o := newOwner(map[string]any{"a": 1, "b": 2})
	s := NewStore("test", o.snapshot)
	var rec recorder
	if err := s.Subscribe("view", rec.cb, sel("a")...); err != nil {
		t.Fatalf("Subscribe returned error: %v", err)
	}

	o.set("b", 3)
	s.NotifyListeners()
	if n := len(rec.all()); n != 1 {
		t.Fatalf("deliveries after unrelated change = %d, want 1", n)
	}

	o.set("a", 5)
	s.NotifyListeners()
	got := rec.all()
	if len(got) != 2 {
		t.Fatalf("deliveries after selected change = %d, want 2", len(got))
	}
	if !reflect.DeepEqual(got[1].Data, statetree.Tree{"a": 5.0}) {
		t.Fatalf("second data = %#v, want {a:5}", got[1].Data)
	}
}

func TestStore_WildcardSubscriberSeesEveryChange(t *testing.T) {
	o := newOwner(map[string]any{"a": 1, "b": 2})
	s := NewStore("test", o.snapshot)
	var all, star recorder
	_ = s.Subscribe("all", all.cb)
	_ = s.Subscribe("star", star.cb, statepath.Wildcard)

	o.set("b", 3)
	s.NotifyListeners()

	for name, rec := range map[string]*recorder{"all": &all, "star": &star} {
		got := rec.all()
		if len(got) != 2 {
			t.Fatalf("%s deliveries = %d, want 2", name, len(got))
		}
		if !reflect.DeepEqual(got[1].Data, statetree.Tree{"a": 1.0, "b": 3.0}) {
			t.Fatalf("%s data = %#v, want full snapshot", name, got[1].Data)
		}
	}
}

func TestStore_SubscribeThenUnsubscribeDeliversOnce(t *testing.T) {
	o := newOwner(map[string]any{"a": 1})
	s := NewStore("test", o.snapshot)
	var rec recorder
	_ = s.Subscribe("view", rec.cb, sel("a")...)
	s.Unsubscribe("view")

	o.set("a", 2)
	s.NotifyListeners()
	s.NotifyAll()
	s.SetStateAndNotify(Loading)

	if n := len(rec.all()); n != 1 {
		t.Fatalf("deliveries = %d, want exactly the initial one", n)
	}
	// Repeated and unknown unsubscribes are no-ops.
	s.Unsubscribe("view")
	s.Unsubscribe("never-registered")
	if ids := s.Subscribers(); len(ids) != 0 {
		t.Fatalf("Subscribers = %v, want none", ids)
	}
}

func TestStore_StateChangeReachesEverySubscriber(t *testing.T) {
	o := newOwner(map[string]any{"a": 1, "b": 2})
	s := NewStore("test", o.snapshot)
	recs := []*recorder{{}, {}, {}}
	_ = s.Subscribe("a", recs[0].cb, sel("a")...)
	_ = s.Subscribe("b", recs[1].cb, sel("b")...)
	_ = s.Subscribe("missing", recs[2].cb, sel("nothing.here")...)

	s.SetStateAndNotify(Loading)
	s.SetStateAndNotify(ErrorLoading)

	for i, rec := range recs {
		got := rec.all()
		if len(got) != 3 {
			t.Fatalf("subscriber %d deliveries = %d, want 3", i, len(got))
		}
		if !got[1].IsLoading() {
			t.Fatalf("subscriber %d second update not loading: %+v", i, got[1])
		}
		last := got[2]
		if !last.IsError() || last.State != ErrorLoading {
			t.Fatalf("subscriber %d last update = %+v, want ErrorLoading", i, last)
		}
	}
	if s.State() != ErrorLoading {
		t.Fatalf("State = %s, want error_loading", s.State())
	}
}

func TestStore_SetStateSameValueIsNoop(t *testing.T) {
	s := NewStore("test", func() any { return map[string]any{} })
	var rec recorder
	_ = s.Subscribe("view", rec.cb)
	s.SetStateAndNotify(Init)
	if n := len(rec.all()); n != 1 {
		t.Fatalf("deliveries = %d, want 1", n)
	}
}

func TestStore_DeliversInRegistrationOrder(t *testing.T) {
	o := newOwner(map[string]any{"a": 1})
	s := NewStore("test", o.snapshot)

	var mu sync.Mutex
	var order []string
	for _, id := range []string{"first", "second", "third"} {
		id := id
		_ = s.Subscribe(id, func(u Update) {
			mu.Lock()
			order = append(order, id)
			mu.Unlock()
		}, sel("a")...)
	}
	mu.Lock()
	order = nil
	mu.Unlock()

	o.set("a", 2)
	s.NotifyListeners()

	want := []string{"first", "second", "third"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

func TestStore_ReentrantMutationIsQueuedNotInterleaved(t *testing.T) {
	o := newOwner(map[string]any{"a": 1})
	s := NewStore("test", o.snapshot)

	type event struct {
		id string
		a  float64
	}
	var events []event
	record := func(id string) Callback {
		return func(u Update) {
			a, _ := u.Data["a"].(float64)
			events = append(events, event{id, a})
			if id == "first" && a == 2 {
				o.set("a", 3)
				s.NotifyListeners()
			}
		}
	}
	_ = s.Subscribe("first", record("first"), sel("a")...)
	_ = s.Subscribe("second", record("second"), sel("a")...)
	events = nil

	o.set("a", 2)
	s.NotifyListeners()

	want := []event{{"first", 2}, {"second", 2}, {"first", 3}, {"second", 3}}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
}

func TestStore_SubscribeInsideCallback(t *testing.T) {
	o := newOwner(map[string]any{"a": 1})
	s := NewStore("test", o.snapshot)
	var inner recorder
	subscribed := false
	_ = s.Subscribe("outer", func(u Update) {
		if subscribed {
			return
		}
		subscribed = true
		if err := s.Subscribe("inner", inner.cb, sel("a")...); err != nil {
			t.Errorf("nested Subscribe returned error: %v", err)
		}
	}, sel("a")...)

	got := inner.all()
	if len(got) != 1 || !reflect.DeepEqual(got[0].Data, statetree.Tree{"a": 1.0}) {
		t.Fatalf("inner deliveries = %#v, want one initial {a:1}", got)
	}
}

func TestStore_PanickingSubscriberDoesNotBlockOthers(t *testing.T) {
	o := newOwner(map[string]any{"a": 1})
	s := NewStore("test", o.snapshot)
	calls := 0
	_ = s.Subscribe("bad", func(u Update) {
		calls++
		if calls > 1 {
			panic("render failed")
		}
	}, sel("a")...)
	var good recorder
	_ = s.Subscribe("good", good.cb, sel("a")...)

	o.set("a", 2)
	s.NotifyListeners()

	if n := len(good.all()); n != 2 {
		t.Fatalf("good deliveries = %d, want 2", n)
	}
}

func TestStore_DeliveredDataIsIsolated(t *testing.T) {
	o := newOwner(map[string]any{"img": map[string]any{"tags": []any{"cat"}}})
	s := NewStore("test", o.snapshot)
	var first, second recorder
	_ = s.Subscribe("first", first.cb, sel("img")...)
	_ = s.Subscribe("second", second.cb, sel("img.tags")...)

	img := first.all()[0].Data["img"].(map[string]any)
	img["tags"].([]any)[0] = "mutated"

	tags := second.all()[0].Data["img"].(map[string]any)["tags"].([]any)
	if tags[0] != "cat" {
		t.Fatalf("second subscriber saw %v, want cat", tags[0])
	}
	snap, err := s.ReadOnly()
	if err != nil {
		t.Fatalf("ReadOnly returned error: %v", err)
	}
	if got := snap["img"].(map[string]any)["tags"].([]any)[0]; got != "cat" {
		t.Fatalf("canonical snapshot tag = %v, want cat", got)
	}
}

func TestStore_UnchangedSnapshotSkipsPass(t *testing.T) {
	o := newOwner(map[string]any{"a": 1})
	s := NewStore("test", o.snapshot)
	var rec recorder
	_ = s.Subscribe("view", rec.cb)

	o.set("a", 2)
	s.NotifyListeners()
	fp := s.Fingerprint()
	if fp == 0 {
		t.Fatalf("Fingerprint = 0 after a pass")
	}
	s.NotifyListeners()
	if s.Fingerprint() != fp {
		t.Fatalf("Fingerprint changed without a mutation")
	}
	if n := len(rec.all()); n != 2 {
		t.Fatalf("deliveries = %d, want 2", n)
	}

	// A forced pass still reaches everyone.
	s.NotifyAll()
	if n := len(rec.all()); n != 3 {
		t.Fatalf("deliveries after NotifyAll = %d, want 3", n)
	}
}

func TestStore_SubscribeErrors(t *testing.T) {
	type snap struct {
		Name string `json:"name"`
	}
	s := NewStore("test", func() any { return snap{Name: "x"} },
		WithSchema(statepath.SchemaOf[snap]()))

	if err := s.Subscribe("nil", nil); !errors.Is(err, ErrNilCallback) {
		t.Fatalf("Subscribe(nil cb) = %v, want ErrNilCallback", err)
	}
	if err := s.Subscribe("typo", func(Update) {}, sel("nmae")...); !errors.Is(err, statepath.ErrInvalidPath) {
		t.Fatalf("Subscribe(typo) = %v, want ErrInvalidPath", err)
	}
	if err := s.Subscribe("ok", func(Update) {}, sel("name")...); err != nil {
		t.Fatalf("Subscribe(ok) = %v", err)
	}
	if err := s.Subscribe("ok", func(Update) {}); !errors.Is(err, ErrDuplicateSubscriber) {
		t.Fatalf("Subscribe(duplicate) = %v, want ErrDuplicateSubscriber", err)
	}
}

func TestChild_ForwardsToParent(t *testing.T) {
	o := newOwner(map[string]any{"a": 1})
	s := NewStore("app", o.snapshot)
	child := NewChild("project", s)
	o.mu.Lock()
	o.data["project"] = map[string]any{}
	o.mu.Unlock()

	var rec recorder
	_ = s.Subscribe("view", rec.cb, sel("a")...)

	child.SetStateAndNotify(Loading)
	got := rec.all()
	if len(got) != 2 {
		t.Fatalf("deliveries after child transition = %d, want 2", len(got))
	}
	// The root's own status is unaffected by the child's.
	if got[1].State != Init || child.State() != Loading {
		t.Fatalf("root state %s child state %s, want init/loading", got[1].State, child.State())
	}

	o.set("a", 9)
	child.NotifyListeners()
	got = rec.all()
	if len(got) != 3 || !reflect.DeepEqual(got[2].Data, statetree.Tree{"a": 9.0}) {
		t.Fatalf("deliveries after child notify = %#v", got)
	}
}

func TestChild_NilParentIsSafe(t *testing.T) {
	child := NewChild("orphan", nil)
	child.SetStateAndNotify(Loading)
	child.NotifyListeners()
	if child.State() != Loading {
		t.Fatalf("State = %s, want loading", child.State())
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{Init, Loading, true},
		{Loading, Loaded, true},
		{Loading, ErrorLoading, true},
		{Loaded, ErrorSaving, true},
		{ErrorLoading, Loading, true},
		{ErrorSaving, Loaded, true},
		{Loaded, Loading, true},
		{Init, Loaded, false},
		{Loading, ErrorSaving, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %t, want %t", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestStatus_TextRoundTrip(t *testing.T) {
	for st := Init; st <= ErrorSaving; st++ {
		text, err := st.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d) returned error: %v", st, err)
		}
		var back Status
		if err := back.UnmarshalText(text); err != nil || back != st {
			t.Fatalf("UnmarshalText(%q) = %s, %v; want %s", text, back, err, st)
		}
	}
	if _, err := ParseStatus("done"); err == nil {
		t.Fatalf("ParseStatus(done) returned nil error")
	}
}

func TestStore_LateSubscriberCatchesUpAfterRevert(t *testing.T) {
	o := newOwner(map[string]any{"a": 1})
	s := NewStore("test", o.snapshot)
	s.NotifyListeners()

	o.set("a", 2)
	var late recorder
	if err := s.Subscribe("late", late.cb, sel("a")...); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	o.set("a", 1)
	s.NotifyListeners()

	got := late.all()
	if len(got) != 2 {
		t.Fatalf("late deliveries = %d, want 2", len(got))
	}
	if !reflect.DeepEqual(got[1].Data, statetree.Tree{"a": 1.0}) {
		t.Fatalf("last delivery = %#v, want {a:1}", got[1].Data)
	}
}

func TestStore_SubscribeWhileAnotherGoroutineDelivers(t *testing.T) {
	o := newOwner(map[string]any{"a": 1})
	s := NewStore("test", o.snapshot)

	entered := make(chan struct{})
	release := make(chan struct{})
	_ = s.Subscribe("slow", func(u Update) {
		if u.Data["a"] == 2.0 {
			close(entered)
			<-release
		}
	}, sel("a")...)

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.set("a", 2)
		s.NotifyListeners()
	}()
	<-entered

	var view recorder
	if err := s.Subscribe("view", view.cb, sel("a")...); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	got := view.all()
	if len(got) != 1 || !reflect.DeepEqual(got[0].Data, statetree.Tree{"a": 2.0}) {
		t.Fatalf("deliveries when Subscribe returned = %#v, want one {a:2}", got)
	}

	close(release)
	<-done

	o.set("a", 3)
	s.NotifyListeners()
	got = view.all()
	if len(got) != 2 || !reflect.DeepEqual(got[1].Data, statetree.Tree{"a": 3.0}) {
		t.Fatalf("view deliveries = %#v, want initial then {a:3}", got)
	}
}

func TestStore_UpdatesDuringInitialDeliveryFollowIt(t *testing.T) {
	o := newOwner(map[string]any{"a": 1})
	s := NewStore("test", o.snapshot)

	var seen []float64
	first := true
	_ = s.Subscribe("view", func(u Update) {
		a, _ := u.Data["a"].(float64)
		seen = append(seen, a)
		if first {
			first = false
			o.set("a", 2)
			s.NotifyListeners()
		}
	}, sel("a")...)

	if want := []float64{1, 2}; !reflect.DeepEqual(seen, want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
}

func TestStore_ConcurrentNotifyEndsOnLatestSnapshot(t *testing.T) {
	for round := 0; round < 20; round++ {
		o := newOwner(map[string]any{"a": 0})
		s := NewStore("test", o.snapshot)
		var view recorder
		_ = s.Subscribe("view", view.cb, sel("a")...)

		var wg sync.WaitGroup
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					o.set("a", w*100+i)
					s.NotifyListeners()
				}
			}(w)
		}
		wg.Wait()

		canonical, err := s.ReadOnly()
		if err != nil {
			t.Fatalf("ReadOnly: %v", err)
		}
		got := view.all()
		last := got[len(got)-1]
		if !reflect.DeepEqual(last.Data["a"], canonical["a"]) {
			t.Fatalf("round %d: last delivery a=%v, canonical a=%v", round, last.Data["a"], canonical["a"])
		}
	}
}

func TestStore_SubscribeRejectsSymbolicSelectors(t *testing.T) {
	o := newOwner(map[string]any{"tags": []any{"cat"}})
	s := NewStore("test", o.snapshot)

	err := s.Subscribe("view", func(Update) {}, sel("tags[]")...)
	if !errors.Is(err, statepath.ErrInvalidPath) {
		t.Fatalf("Subscribe error = %v, want ErrInvalidPath", err)
	}
	if n := len(s.Subscribers()); n != 0 {
		t.Fatalf("subscribers = %d, want 0", n)
	}
}
