package tree

// Merge layers strong over weak and returns the combined tree. Maps merge key
// by key with strong entries winning; any other strong value (including
// sequences and null) replaces the weak one outright. An absent strong value
// falls back to weak. Untouched weak subtrees are shared, not copied.
func Merge(strong, weak *Node) *Node {
	if strong == nil {
		return weak
	}
	if weak == nil || strong.kind != KindMap || weak.kind != KindMap {
		return strong
	}
	fields := make(map[string]*Node, len(weak.fields)+len(strong.fields))
	for key, child := range weak.fields {
		fields[key] = child
	}
	for key, child := range strong.fields {
		fields[key] = Merge(child, weak.fields[key])
	}
	return &Node{kind: KindMap, fields: fields}
}

// MergeLayers composes trees ordered from strongest to weakest.
func MergeLayers(layers ...*Node) *Node {
	if len(layers) == 0 {
		return nil
	}
	merged := layers[len(layers)-1]
	for i := len(layers) - 2; i >= 0; i-- {
		merged = Merge(layers[i], merged)
	}
	return merged
}
