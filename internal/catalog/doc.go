// Package catalog holds the device categories the facility accepts.
//
// A Catalog is built once at startup, either from the built-in table or from a
// YAML override file, and is read-only afterwards. Each CategorySpec records
// the materials a device yields, its nominal processing time, the fraction of
// material mass assumed recoverable, and a hazard tier. The package also owns
// the list of trace materials (precious or hazardous elements recovered in
// gram quantities) and the percentage composition table used for hazard
// scoring.
package catalog
