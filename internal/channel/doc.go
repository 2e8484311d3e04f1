// Package channel derives logical channel groups from the raw channel
// labels of an EXR header.
//
// Raw labels such as R, G, B, A, Z or normal.X are classified into named
// groups: color labels form the "C" group, the depth label forms "Z",
// and dotted labels group under their prefix (the AOV name). Each group
// keeps its labels in canonical RGBA-equivalent order via the suffix
// comparator, validates its label count, and maps however many labels it
// has onto a prefix of the standard R, G, B, A output slots.
package channel
