package session

// Navigator 页码导航，页码始终在 [1, Count] 内
type Navigator struct {
	page  int
	count int
}

// NewNavigator 创建导航器，从第 1 页开始
func NewNavigator(count int) *Navigator {
	if count < 1 {
		count = 1
	}
	return &Navigator{page: 1, count: count}
}

// Page 当前页码
func (n *Navigator) Page() int { return n.page }

// Count 总页数
func (n *Navigator) Count() int { return n.count }

// CanNext 是否可以向后翻页
func (n *Navigator) CanNext() bool { return n.page < n.count }

// CanPrevious 是否可以向前翻页
func (n *Navigator) CanPrevious() bool { return n.page > 1 }

// Next 翻到下一页，到末页时不变；返回页码是否变化
func (n *Navigator) Next() bool {
	if !n.CanNext() {
		return false
	}
	n.page++
	return true
}

// Previous 翻到上一页，到首页时不变；返回页码是否变化
func (n *Navigator) Previous() bool {
	if !n.CanPrevious() {
		return false
	}
	n.page--
	return true
}

// Goto 跳转到 page（超出范围时取边界值）；返回页码是否变化
func (n *Navigator) Goto(page int) bool {
	page = max(1, min(page, n.count))
	if page == n.page {
		return false
	}
	n.page = page
	return true
}
