package models

import "gorm.io/datatypes"

// IDList is an ordered list of entity ids stored as a JSON column.
type IDList = datatypes.JSONSlice[string]

func Contains(list IDList, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

// AddUnique appends id unless it is already present.
func AddUnique(list IDList, id string) IDList {
	if Contains(list, id) {
		return list
	}
	return append(list, id)
}

// Remove drops every occurrence of id.
func Remove(list IDList, id string) IDList {
	out := make(IDList, 0, len(list))
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func nonNil(list IDList) IDList {
	if list == nil {
		return IDList{}
	}
	return list
}
