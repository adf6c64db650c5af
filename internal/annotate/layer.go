package annotate

import (
	"image"
	"sort"
	"sync"
)

// Layer 单页标注列表，按创建顺序保存，只追加不删除
type Layer struct {
	annotations []Annotation
}

// NewLayer 创建空标注层
func NewLayer() *Layer {
	return &Layer{annotations: make([]Annotation, 0)}
}

// snapshot 创建当前列表的深拷贝
func (l *Layer) snapshot() []Annotation {
	s := make([]Annotation, len(l.annotations))
	for i, a := range l.annotations {
		s[i] = a
		s[i].Points = make([]image.Point, len(a.Points))
		copy(s[i].Points, a.Points)
	}
	return s
}

// Add 追加一个标注
func (l *Layer) Add(a Annotation) error {
	if a.Kind == KindHighlight && !a.Region.Valid() {
		return ErrNegativeRegion
	}
	pts := make([]image.Point, len(a.Points))
	copy(pts, a.Points)
	a.Points = pts
	l.annotations = append(l.annotations, a)
	return nil
}

// AddRegion 追加高亮区域（使用默认高亮颜色）
func (l *Layer) AddRegion(r Region) error {
	return l.Add(DefaultStyle().Highlight(r))
}

// Annotations 获取所有标注（副本）
func (l *Layer) Annotations() []Annotation {
	return l.snapshot()
}

// Regions 按创建顺序返回所有高亮区域
func (l *Layer) Regions() []Region {
	var regions []Region
	for _, a := range l.annotations {
		if a.Kind == KindHighlight {
			regions = append(regions, a.Region)
		}
	}
	return regions
}

// Len 标注数量
func (l *Layer) Len() int {
	return len(l.annotations)
}

// Book 按页保存标注层，页码从 1 开始
type Book struct {
	mu     sync.Mutex
	layers map[int]*Layer
}

// NewBook 创建标注簿
func NewBook() *Book {
	return &Book{layers: make(map[int]*Layer)}
}

// Layer 获取指定页的标注层，不存在时创建
func (b *Book) Layer(page int) *Layer {
	b.mu.Lock()
	defer b.mu.Unlock()

	l, ok := b.layers[page]
	if !ok {
		l = NewLayer()
		b.layers[page] = l
	}
	return l
}

// Pages 返回有标注的页码（升序）
func (b *Book) Pages() []int {
	b.mu.Lock()
	defer b.mu.Unlock()

	pages := make([]int, 0, len(b.layers))
	for p, l := range b.layers {
		if l.Len() > 0 {
			pages = append(pages, p)
		}
	}
	sort.Ints(pages)
	return pages
}

// Clear 清空所有页
func (b *Book) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.layers = make(map[int]*Layer)
}
