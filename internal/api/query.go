package api

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

type SortKey struct {
	Field string
	Desc  bool
}

type ListParams struct {
	Limit   int
	Offset  int
	Sort    []SortKey
	Filters map[string][]string
	Q       string
}

func parseListParams(q url.Values) ListParams {
	limit := 50
	lv := q.Get("_limit")
	if lv == "" {
		lv = q.Get("limit")
	}
	if lv != "" {
		if n, err := strconv.Atoi(lv); err == nil && n >= 0 && n <= 1000 {
			limit = n
		}
	}

	offset := 0
	ov := q.Get("_offset")
	if ov == "" {
		ov = q.Get("offset")
	}
	if ov != "" {
		if n, err := strconv.Atoi(ov); err == nil && n >= 0 {
			offset = n
		}
	}

	var sortKeys []SortKey
	sv := strings.TrimSpace(q.Get("_sort"))
	if sv == "" {
		sv = strings.TrimSpace(q.Get("sort"))
	}
	for _, p := range strings.Split(sv, ",") {
		p = strings.TrimSpace(p)
		desc := false
		if strings.HasPrefix(p, "-") {
			desc = true
			p = strings.TrimPrefix(p, "-")
		} else {
			p = strings.TrimPrefix(p, "+")
		}
		if p != "" {
			sortKeys = append(sortKeys, SortKey{Field: p, Desc: desc})
		}
	}

	filters := make(map[string][]string)
	for key, vals := range q {
		switch key {
		case "q", "offset", "limit", "sort", "_offset", "_limit", "_sort", "lang":
			continue
		}
		clean := make([]string, 0, len(vals))
		for _, v := range vals {
			if strings.TrimSpace(v) != "" {
				clean = append(clean, v)
			}
		}
		if len(clean) > 0 {
			filters[key] = clean
		}
	}

	return ListParams{
		Limit:   limit,
		Offset:  offset,
		Sort:    sortKeys,
		Filters: filters,
		Q:       strings.TrimSpace(q.Get("q")),
	}
}

// scalar returns a sortable/filterable top-level unit field. Numbers come
// back as int, names as string.
func scalar(r *Record, field string) (any, bool) {
	u := r.Unit
	switch field {
	case "id":
		return u.ID, true
	case "name_en", "name":
		return u.NameEn, true
	case "name_de":
		return u.NameDe, true
	case "points":
		return u.Points, true
	case "minimum":
		return u.Minimum, true
	case "maximum":
		return u.Maximum, true
	case "version":
		return int(r.Version), true
	}
	return nil, false
}

func cmpByKey(a, b *Record, key string, desc bool) int {
	va, oka := scalar(a, key)
	vb, okb := scalar(b, key)
	if !oka || !okb {
		return 0
	}
	rel := 0
	switch x := va.(type) {
	case int:
		y := vb.(int)
		if x < y {
			rel = -1
		} else if x > y {
			rel = +1
		}
	case string:
		rel = strings.Compare(strings.ToLower(x), strings.ToLower(vb.(string)))
	}
	if desc {
		rel = -rel
	}
	return rel
}

func sortRecordsMulti(records []*Record, keys []SortKey) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		for _, k := range keys {
			if c := cmpByKey(records[i], records[j], k.Field, k.Desc); c != 0 {
				return c < 0
			}
		}
		return false
	})
}

// filterRecords keeps records matching q (id or either name, substring) and
// every equality filter on known fields. Unknown filter keys are ignored.
func filterRecords(all []*Record, lp ListParams) []*Record {
	out := make([]*Record, 0, len(all))
	q := strings.ToLower(lp.Q)
	for _, r := range all {
		match := true
		for k, vals := range lp.Filters {
			got, ok := scalar(r, k)
			if !ok {
				continue
			}
			gs := toString(got)
			okv := false
			for _, want := range vals {
				if strings.EqualFold(gs, want) {
					okv = true
					break
				}
			}
			if !okv {
				match = false
				break
			}
		}
		if match && q != "" {
			match = strings.Contains(strings.ToLower(r.Unit.ID), q) ||
				strings.Contains(strings.ToLower(r.Unit.NameEn), q) ||
				strings.Contains(strings.ToLower(r.Unit.NameDe), q)
		}
		if match {
			out = append(out, r)
		}
	}
	return out
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	default:
		return ""
	}
}

func page[T any](items []T, lp ListParams) []T {
	start := lp.Offset
	if start > len(items) {
		start = len(items)
	}
	end := start + lp.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
