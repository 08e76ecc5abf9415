package regf

import "fmt"

// ValueType is a registry value's on-disk type tag.
type ValueType uint32

const (
	TypeNone                     ValueType = 0
	TypeString                   ValueType = 1
	TypeExpandString             ValueType = 2
	TypeBinary                   ValueType = 3
	TypeUint32LE                 ValueType = 4
	TypeUint32BE                 ValueType = 5
	TypeSymlink                  ValueType = 6
	TypeMultiString              ValueType = 7
	TypeResourceList             ValueType = 8
	TypeFullResourceDescriptor   ValueType = 9
	TypeResourceRequirementsList ValueType = 10
	TypeUint64LE                 ValueType = 11
)

// String implements fmt.Stringer.
func (t ValueType) String() string {
	switch t {
	case TypeNone:
		return "NONE"
	case TypeString:
		return "STRING"
	case TypeExpandString:
		return "EXPANDABLE_STRING"
	case TypeBinary:
		return "BINARY"
	case TypeUint32LE:
		return "UINT32_LE"
	case TypeUint32BE:
		return "UINT32_BE"
	case TypeSymlink:
		return "SYMLINK"
	case TypeMultiString:
		return "MULTI_STRING"
	case TypeResourceList:
		return "RESOURCE_LIST"
	case TypeFullResourceDescriptor:
		return "FULL_RESOURCE_DESCRIPTOR"
	case TypeResourceRequirementsList:
		return "RESOURCE_REQUIREMENTS_LIST"
	case TypeUint64LE:
		return "UINT64_LE"
	default:
		return fmt.Sprintf("UNKNOWN_TYPE_%d", uint32(t))
	}
}
