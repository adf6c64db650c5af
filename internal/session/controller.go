package session

import "image"

// Controller 工具模式控制器
//
// 每个模式在激活时注册自己的监听器，切换模式（包括重新选择同一模式）、
// 换页或关闭时，上一模式注册的全部监听器（含拖拽中临时注册的）都会先被移除，
// 然后才注册新模式的监听器。
type Controller struct {
	mode    Mode
	ls      listeners
	scope   map[int]func()
	nextID  int
	enter   func(Mode)
	leave   func(Mode)
	stopped bool
}

// newController 创建控制器，初始模式为 ModeNone
// enter 在模式激活时注册监听器，leave 在模式退出前清理手势状态
func newController(enter, leave func(Mode)) *Controller {
	return &Controller{mode: ModeNone, enter: enter, leave: leave}
}

// Mode 当前模式
func (c *Controller) Mode() Mode {
	return c.mode
}

// Set 无条件切换到 m；Close 之后为空操作
func (c *Controller) Set(m Mode) {
	if c.stopped {
		return
	}
	c.release()
	c.mode = m
	if c.enter != nil {
		c.enter(m)
	}
}

// Reenter 重新激活当前模式，丢弃进行中的手势
func (c *Controller) Reenter() {
	c.Set(c.mode)
}

// Close 移除所有监听器，之后的事件不再分发
func (c *Controller) Close() {
	c.release()
	c.stopped = true
}

// Attach 在当前模式作用域内注册监听器；提前调用 remove 会同时把它移出作用域
func (c *Controller) Attach(ev Event, fn Handler) (remove func()) {
	if c.scope == nil {
		c.scope = make(map[int]func())
	}
	c.nextID++
	id := c.nextID
	detach := c.ls.add(ev, fn)
	c.scope[id] = detach

	return func() {
		detach()
		delete(c.scope, id)
	}
}

// Dispatch 分发事件
func (c *Controller) Dispatch(ev Event, p image.Point) {
	if c.stopped {
		return
	}
	c.ls.dispatch(ev, p)
}

// Listeners 当前已注册的事件
func (c *Controller) Listeners() []Event {
	return c.ls.events()
}

func (c *Controller) release() {
	if c.leave != nil {
		c.leave(c.mode)
	}
	for id, remove := range c.scope {
		remove()
		delete(c.scope, id)
	}
}
