// Package route holds the dashboard's static route table and the access
// decision consulted before a protected view is rendered.
//
// [Table.CheckAccess] is pure: it reads the frozen table and the caller's
// authentication facts and returns a fresh [Decision]. Paths missing from the
// table are treated as requiring authentication.
package route
