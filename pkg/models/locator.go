package models

import "fmt"

// By is a locator strategy, named as in the WebDriver protocol
type By string

const (
	ByIDStrategy    By = "id"
	ByCSSStrategy   By = "css selector"
	ByXPathStrategy By = "xpath"
)

// Locator identifies a page element
type Locator struct {
	By    By
	Value string
}

func ByID(id string) Locator { return Locator{By: ByIDStrategy, Value: id} }
func ByCSS(selector string) Locator { return Locator{By: ByCSSStrategy, Value: selector} }
func ByXPath(expression string) Locator { return Locator{By: ByXPathStrategy, Value: expression} }

func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.By, l.Value)
}
