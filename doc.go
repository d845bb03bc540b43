// Package yamlform edits YAML documents through structured values while keeping the
// text that did not change: comments, key order, flow or block style, scalar style and
// every unrelated byte.
//
// A target value is compared with the value the text decodes to. Each difference
// becomes an edit of the original text (a changed scalar, a removed or added key, a
// truncated or extended sequence, a replaced subtree), and the edits are applied in a
// single pass:
//
//	doc := yamlform.New("meta:\n  name: test  #note\n  namespace: default\n")
//	err := doc.Set(gyaml.MapSlice{{Key: "meta", Value: gyaml.MapSlice{
//		{Key: "name", Value: "test2"},
//		{Key: "namespace", Value: "default"},
//	}}})
//	// doc.String() == "meta:\n  name: test2  #note\n  namespace: default\n"
//
// Trailing line comments ("remarks") can be read and written by path with GetRemark
// and SetRemark.
package yamlform
