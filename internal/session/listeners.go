package session

import "image"

// Event 指针事件类型
type Event int

const (
	PointerDown Event = iota
	PointerMove
	PointerUp
	Click
)

var eventNames = [...]string{
	PointerDown: "pointerdown",
	PointerMove: "pointermove",
	PointerUp:   "pointerup",
	Click:       "click",
}

func (e Event) String() string {
	if int(e) >= 0 && int(e) < len(eventNames) {
		return eventNames[e]
	}
	return "unknown"
}

// Handler 指针事件回调，p 为页面光栅坐标
type Handler func(p image.Point)

type listener struct {
	id int
	ev Event
	fn Handler
}

// listeners 监听器表，按注册顺序分发
type listeners struct {
	entries []listener
	nextID  int
}

// add 注册监听器，返回的 remove 可重复调用
func (l *listeners) add(ev Event, fn Handler) (remove func()) {
	l.nextID++
	id := l.nextID
	l.entries = append(l.entries, listener{id: id, ev: ev, fn: fn})

	return func() {
		for i, e := range l.entries {
			if e.id == id {
				l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
				return
			}
		}
	}
}

// dispatch 调用所有匹配的监听器；回调中增删监听器不影响本次分发
func (l *listeners) dispatch(ev Event, p image.Point) {
	snapshot := make([]listener, len(l.entries))
	copy(snapshot, l.entries)
	for _, e := range snapshot {
		if e.ev == ev && l.has(e.id) {
			e.fn(p)
		}
	}
}

func (l *listeners) has(id int) bool {
	for _, e := range l.entries {
		if e.id == id {
			return true
		}
	}
	return false
}

// events 返回已注册的事件（按注册顺序）
func (l *listeners) events() []Event {
	evs := make([]Event, len(l.entries))
	for i, e := range l.entries {
		evs[i] = e.ev
	}
	return evs
}
