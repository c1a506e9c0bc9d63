package projection

import "github.com/okian/stampcard/internal/domain/model"

// DefaultPageSize is the history page length.
const DefaultPageSize = 50

// HistoryItem is a history record with its position and glyph.
type HistoryItem struct {
	Index int `json:"index"`
	model.StampRecord
	Glyph string `json:"emoji"`
}

// HistoryPage is one page of a profile's history, oldest first.
type HistoryPage struct {
	Items            []HistoryItem `json:"items"`
	Page             int           `json:"page"`
	Pages            int           `json:"pages"`
	PageSize         int           `json:"pageSize"`
	Total            int           `json:"total"`
	TotalValidStamps int           `json:"totalValidStamps"`
}

// Pages returns max(1, ceil(total/size)).
func Pages(total, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	n := (total + size - 1) / size
	if n < 1 {
		return 1
	}
	return n
}

// BuildHistoryPage returns the zero-based page of state's history. page is
// clamped into [0, Pages-1].
func BuildHistoryPage(state model.ProfileState, page, size int) HistoryPage {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(state.History)
	pages := Pages(total, size)
	if page < 0 {
		page = 0
	}
	if page > pages-1 {
		page = pages - 1
	}

	start := page * size
	end := start + size
	if end > total {
		end = total
	}

	items := make([]HistoryItem, 0, end-start)
	for i := start; i < end; i++ {
		r := state.History[i]
		items = append(items, HistoryItem{Index: i, StampRecord: r, Glyph: model.Glyph(r.Variant)})
	}

	return HistoryPage{
		Items:            items,
		Page:             page,
		Pages:            pages,
		PageSize:         size,
		Total:            total,
		TotalValidStamps: state.ValidStamps(),
	}
}
