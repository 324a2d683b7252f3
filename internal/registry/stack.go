package registry

import "strings"

// ExtractPath filters a cleaned stack (innermost frame first) down to
// the frames that belong to registered call paths, returned root to
// leaf. Walking from the root, a frame is kept only when the
// ";"-joined path accumulated so far names a registered region.
// appendName, when non-empty, is appended as the leaf; a duplicate of
// it at the innermost position is skipped first.
func ExtractPath(funcs *Functions, cleaned []string, appendName string) []string {
	start := 0
	if appendName != "" && len(cleaned) > 0 && cleaned[0] == appendName {
		start = 1
	}

	var path []string
	var key string
	for i := len(cleaned) - 1; i >= start; i-- {
		frame := cleaned[i]
		candidate := frame
		if key != "" {
			candidate = key + ";" + frame
		}
		if funcs.IsRegistered(candidate) {
			path = append(path, frame)
			key = candidate
		}
	}
	if appendName != "" {
		path = append(path, appendName)
	}
	return path
}

// BuildStack renders a root-to-leaf path as a folded stack line,
// substituting the registered descriptive name for every prefix that
// has one. A non-empty label is appended to the leaf frame as
// "name:label".
func BuildStack(funcs *Functions, path []string, label string) string {
	frames := make([]string, 0, len(path))
	key := ""
	for _, frame := range path {
		if key == "" {
			key = frame
		} else {
			key = key + ";" + frame
		}
		if desc, ok := funcs.DescriptiveName(key); ok {
			frames = append(frames, desc)
		} else {
			frames = append(frames, frame)
		}
	}
	if label != "" && len(frames) > 0 {
		frames[len(frames)-1] = frames[len(frames)-1] + ":" + label
	}
	return strings.Join(frames, ";")
}
