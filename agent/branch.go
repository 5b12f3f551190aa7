package agent

// buildBranchPath joins parent and child into a dotted branch identifier.
// Either side may be empty, in which case the other is returned as is.
func buildBranchPath(parent, child string) string {
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return parent + "." + child
}
