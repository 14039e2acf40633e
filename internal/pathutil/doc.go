// Package pathutil tracks the JSON Pointer of the node being visited during
// a document walk.
//
// [PathBuilder] uses push/pop semantics and keeps segments unescaped, so no
// intermediate strings are built while walking. The pointer is materialized
// by String, typically once per reference node found:
//
//	path := pathutil.Acquire()
//	defer pathutil.Release(path)
//
//	path.Push("properties")
//	path.Push(propName)
//	// ... recurse ...
//	path.Pop()
//	path.Pop()
//
// Array indices use [PathBuilder.PushIndex]:
//
//	path.Push("items")
//	path.PushIndex(0) // produces "#/items/0"
package pathutil
