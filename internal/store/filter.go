package store

// Either an [ExactFilter] or a [SearchFilter]
type Filter interface {
	isFilter()
}

// Exact match on every set field. No fields set matches everything.
type ExactFilter struct {
	Branch   *string
	Semester *string
}

// Case insensitive match of Term as a pattern against studentName or batchNo
type SearchFilter struct {
	Term string
}

func (ExactFilter) isFilter()  {}
func (SearchFilter) isFilter() {}

// Builds the filter for a list request. Empty values count as absent and a
// search term takes precedence over branch and semester.
//
//nolint:ireturn // tagged union
func FilterFromQuery(branch, semester, search string) Filter {
	if search != "" {
		return SearchFilter{Term: search}
	}

	var f ExactFilter
	if branch != "" {
		f.Branch = &branch
	}
	if semester != "" {
		f.Semester = &semester
	}

	return f
}
