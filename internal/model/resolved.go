package model

// ResolvedFileList is the per-attempt list of ModFiles after override
// application, in deterministic extraction order.
type ResolvedFileList struct {
	Files []ModFile
}

// NewResolvedFileList wraps files without reordering them.
func NewResolvedFileList(files []ModFile) *ResolvedFileList {
	return &ResolvedFileList{Files: files}
}

// Len returns the number of files.
func (l *ResolvedFileList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Files)
}

// ByID returns the first file with the given id.
func (l *ResolvedFileList) ByID(id string) (ModFile, bool) {
	if l == nil {
		return ModFile{}, false
	}
	for _, f := range l.Files {
		if f.ID == id {
			return f, true
		}
	}
	return ModFile{}, false
}

// IDs returns every id in list order, duplicates included.
func (l *ResolvedFileList) IDs() []string {
	if l == nil {
		return nil
	}
	ids := make([]string, 0, len(l.Files))
	for _, f := range l.Files {
		ids = append(ids, f.ID)
	}
	return ids
}

// DuplicateIDs returns ids that occur more than once, in first-seen order.
func (l *ResolvedFileList) DuplicateIDs() []string {
	if l == nil {
		return nil
	}
	seen := make(map[string]int, len(l.Files))
	var dups []string
	for _, f := range l.Files {
		seen[f.ID]++
		if seen[f.ID] == 2 {
			dups = append(dups, f.ID)
		}
	}
	return dups
}
