package types

// Filter - параметры поиска, фильтрации и пагинации списка.
//
// ?search=cnc&sort[created_at]=desc&filter[department]=Manufacturing&filter[team_id]=1,2&limit=10&page=2
type Filter struct {
	Search         string                 `json:"search,omitempty"`
	Sort           map[string]string      `json:"sort,omitempty"`
	Filter         map[string]interface{} `json:"filter,omitempty"`
	Limit          int                    `json:"limit"`
	Offset         int                    `json:"offset"`
	Page           int                    `json:"page"`
	WithPagination bool                   `json:"with_pagination"`
}
