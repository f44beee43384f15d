// Package artifacts implements the storage collaborators the pipeline writes
// through: uploads under unique names, result artifacts under fixed naming
// conventions, and the mapping between result paths and their public
// /static/results/ URLs.
package artifacts
