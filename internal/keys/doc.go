// Package keys maps a release (binary, version, commit, target, channel) to
// deterministic object-storage keys.
//
// Two schemes implement Builder: BuiltinScheme lays keys out under
// versions/<version>/<sha> and channels/<channel>, and DelegatingScheme hands
// every computation to a Renderer when custom templates are configured. New
// picks one of them once; callers never branch on which is active.
package keys
