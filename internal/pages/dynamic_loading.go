package pages

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/shehryarbajwa/e2e-harness/internal/driver"
	"github.com/shehryarbajwa/e2e-harness/pkg/models"
)

const DynamicLoadingPath = "/dynamic_loading/1"

var (
	startButton    = models.ByXPath("//button[contains(text(), 'Start')]")
	loadingBar     = models.ByID("loading")
	helloWorldText = models.ByID("finish")
)

// DynamicLoadingPage reveals hidden text some time after Start is clicked
type DynamicLoadingPage struct {
	BasePage
}

func NewDynamicLoadingPage(sess driver.Session, baseURL string, logger *zap.Logger) (*DynamicLoadingPage, error) {
	p := &DynamicLoadingPage{BasePage: NewBasePage(sess, baseURL, logger)}
	if err := p.Visit(DynamicLoadingPath); err != nil {
		return nil, err
	}
	if !p.IsDisplayed(startButton) {
		return nil, fmt.Errorf("start button %s not displayed", startButton)
	}
	return p, nil
}

func (p *DynamicLoadingPage) ClickStartButton() error {
	return p.Click(startButton)
}

func (p *DynamicLoadingPage) IsLoadingBarPresent() bool {
	return p.IsDisplayed(loadingBar)
}

func (p *DynamicLoadingPage) IsHelloWorldTextPresent() bool {
	return p.IsDisplayed(helloWorldText)
}
