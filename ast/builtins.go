package ast

// WebAPIGlobals is the Node/browser builtin globals whitelist: callees
// resolving to one of these names classify as "builtin" rather than
// "unresolved" and never receive an EXTERNAL_MODULE edge.
var WebAPIGlobals = map[string]bool{
	"console":            true,
	"process":            true,
	"Buffer":             true,
	"global":             true,
	"globalThis":         true,
	"setTimeout":         true,
	"clearTimeout":       true,
	"setInterval":        true,
	"clearInterval":      true,
	"setImmediate":       true,
	"queueMicrotask":     true,
	"require":            true,
	"module":             true,
	"exports":            true,
	"__dirname":          true,
	"__filename":         true,
	"fetch":              true,
	"window":              true,
	"document":            true,
	"navigator":           true,
	"localStorage":        true,
	"sessionStorage":      true,
	"requestAnimationFrame": true,
	"cancelAnimationFrame":  true,
	"Promise":             true,
	"JSON":                true,
	"Math":                true,
	"Object":              true,
	"Array":               true,
	"Symbol":              true,
	"Map":                 true,
	"Set":                 true,
	"WeakMap":             true,
	"WeakSet":             true,
	"Reflect":             true,
	"Proxy":               true,
}

// KnownCallbackInvokers is the whitelist of callee names whose
// function-valued arguments are linked with a CALLS{callType:callback}
// edge. Any other call only links its function-valued arguments with
// PASSES_ARGUMENT, avoiding false invocation edges on store/register
// patterns.
var KnownCallbackInvokers = map[string]bool{
	// array higher-order functions
	"forEach":       true,
	"map":           true,
	"filter":        true,
	"reduce":        true,
	"reduceRight":   true,
	"some":          true,
	"every":         true,
	"find":          true,
	"findIndex":     true,
	"findLast":      true,
	"findLastIndex": true,
	"sort":          true,
	"flatMap":       true,

	// timers
	"setTimeout":     true,
	"setInterval":    true,
	"setImmediate":   true,
	"requestAnimationFrame": true,

	// promise chain
	"then":    true,
	"catch":   true,
	"finally": true,

	// event subscription
	"on":               true,
	"once":              true,
	"addEventListener":  true,
	"addListener":       true,
	"subscribe":         true,
}

// IsCallbackInvoker reports whether callee permits its function-valued
// arguments to be linked as invoked callbacks rather than plain
// PASSES_ARGUMENT targets.
func IsCallbackInvoker(callee string) bool {
	return KnownCallbackInvokers[callee]
}

// IsWebAPIGlobal reports whether name resolves to a builtin global rather
// than a project- or import-resolved identifier.
func IsWebAPIGlobal(name string) bool {
	return WebAPIGlobals[name]
}

// arrayMutationMethods names the Array.prototype methods the walker
// records as ArrayMutation instead of a plain MethodCall.
var arrayMutationMethods = map[string]bool{
	"push":    true,
	"unshift": true,
	"splice":  true,
}

// IsArrayMutationMethod reports whether method mutates its receiver
// array in place.
func IsArrayMutationMethod(method string) bool {
	return arrayMutationMethods[method]
}
