package printing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChromedpRenderer_Defaults(t *testing.T) {
	r := NewChromedpRenderer(nil)
	defer r.Close()

	assert.Equal(t, defaultChromeTimeout, r.config.DefaultTimeout)
	assert.NotNil(t, r.logger)
	assert.NotNil(t, r.allocCtx)
}

func TestNewChromedpRenderer_Remote(t *testing.T) {
	r := NewChromedpRenderer(&ChromedpConfig{RemoteURL: "ws://chrome:9222", DefaultTimeout: time.Second})
	defer r.Close()
	assert.Equal(t, time.Second, r.config.DefaultTimeout)
}

func TestBuildPrintParams(t *testing.T) {
	r := &ChromedpRenderer{config: &ChromedpConfig{}}

	t.Run("A4 portrait with margins", func(t *testing.T) {
		params := r.buildPrintParams(&RenderRequest{HTML: "<p>x</p>", Margins: DefaultMargins()})

		assert.InDelta(t, 8.27, params.paperWidth, 0.01)
		assert.InDelta(t, 11.69, params.paperHeight, 0.01)
		assert.InDelta(t, mmToInches(15), params.marginTop, 0.001)
		assert.InDelta(t, mmToInches(12), params.marginLeft, 0.001)
		assert.False(t, params.displayFooter)
	})

	t.Run("footer forces a bottom margin", func(t *testing.T) {
		params := r.buildPrintParams(&RenderRequest{HTML: "<p>x</p>", FooterHTML: "<span class=pageNumber></span>"})

		assert.True(t, params.displayFooter)
		assert.InDelta(t, mmToInches(10), params.marginBottom, 0.001)
		assert.Zero(t, params.marginTop)
	})
}

func TestChromedpRenderer_RejectsEmptyHTML(t *testing.T) {
	r := NewChromedpRenderer(nil)
	defer r.Close()

	_, err := r.Render(context.Background(), nil)
	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)

	_, err = r.Render(context.Background(), &RenderRequest{HTML: "   "})
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)
}

func TestEstimatePageCount(t *testing.T) {
	pdf := []byte("<< /Type /Pages /Count 2 >> << /Type /Page >> << /Type /Page >>")
	assert.Equal(t, 2, estimatePageCount(pdf))
	assert.Equal(t, 1, estimatePageCount([]byte("%PDF")))
}

func TestMmToInches(t *testing.T) {
	assert.InDelta(t, 1.0, mmToInches(25.4), 0.0001)
	assert.InDelta(t, 0.0, mmToInches(0), 0.0001)
}

func TestRenderError(t *testing.T) {
	cause := errors.New("boom")
	err := NewRenderError(ErrCodeRenderFailed, "chromedp execution failed", cause)
	assert.Equal(t, "chromedp execution failed: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "empty", NewRenderError(ErrCodeRenderFailed, "empty", nil).Error())
}
