// Package permission defines dashboard roles and the ordered hierarchy used to
// decide whether a role satisfies a route's requirement.
//
// # Hierarchy
//
// Roles carry an integer level; a role satisfies a requirement list when its
// level is at least the lowest level in the list. The default hierarchy is
// viewer(1) < employee(2) < manager(3) < admin(4). A required role that is not
// registered is treated as level [UnknownRequiredLevel] and therefore can never
// be satisfied by a registered role.
//
// # Role resolution
//
// Profiles carry no role claim. [RoleOf] assigns [RoleEmployee] to every
// authenticated profile and [RoleNone] to a nil profile.
//
// # Architecture boundaries
//
// A [Hierarchy] is mutable only until [Hierarchy.Freeze]; route tables hold a
// frozen hierarchy and read it concurrently.
package permission
