package entities

import (
	"strings"

	"github.com/shopspring/decimal"
)

type PackageCode string

const (
	PackageME2 PackageCode = "ME2"
	PackageME3 PackageCode = "ME3"
	PackageME4 PackageCode = "ME4"
	PackageME5 PackageCode = "ME5"
)

type Package struct {
	Code  PackageCode
	Price decimal.Decimal
}

var packages = map[PackageCode]Package{
	PackageME2: {Code: PackageME2, Price: decimal.NewFromInt(2)},
	PackageME3: {Code: PackageME3, Price: decimal.NewFromInt(5)},
	PackageME4: {Code: PackageME4, Price: decimal.NewFromInt(7)},
	PackageME5: {Code: PackageME5, Price: decimal.NewFromInt(10)},
}

// LookupPackage matches the code exactly, ignoring surrounding whitespace.
func LookupPackage(code string) (Package, bool) {
	pkg, ok := packages[PackageCode(strings.TrimSpace(code))]
	return pkg, ok
}

func Packages() []Package {
	return []Package{packages[PackageME2], packages[PackageME3], packages[PackageME4], packages[PackageME5]}
}
