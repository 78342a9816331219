package catalog

import "github.com/okian/dawgbowl/internal/domain/model"

// Default is the built-in Dawg Bowl field.
func Default() *Catalog {
	c, err := New([]model.Contestant{
		{ID: 101, Name: "spartan", Salary: 7500},
		{ID: 102, Name: "lofireball15", Salary: 5000},
		{ID: 103, Name: "jordanchand", Salary: 9000},
		{ID: 104, Name: "chezze", Salary: 7000},
		{ID: 105, Name: "fflinx", Salary: 7500},
		{ID: 106, Name: "lavalord", Salary: 9000},
		{ID: 107, Name: "welchman", Salary: 5000},
		{ID: 108, Name: "lolhotdogz", Salary: 8000},
		{ID: 109, Name: "thewood1105", Salary: 9000},
		{ID: 110, Name: "weather1981", Salary: 5000},
		{ID: 111, Name: "jtmckenzi", Salary: 10500},
		{ID: 112, Name: "in3us", Salary: 10000},
		{ID: 113, Name: "bestballviper", Salary: 9000},
		{ID: 114, Name: "awe419", Salary: 9500},
		{ID: 115, Name: "crblake2", Salary: 8500},
		{ID: 116, Name: "smerenda8", Salary: 9000},
		{ID: 117, Name: "generalblue", Salary: 5000},
		{ID: 118, Name: "bamntru", Salary: 5000},
		{ID: 119, Name: "patrickbarnesyoutube", Salary: 8000},
		{ID: 120, Name: "dallas102701", Salary: 5000},
		{ID: 121, Name: "babystevie", Salary: 6000},
		{ID: 122, Name: "samolson31", Salary: 11000},
	})
	if err != nil {
		panic(err)
	}
	return c
}
