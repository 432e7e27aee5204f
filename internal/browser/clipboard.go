// File: internal/browser/clipboard.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/chromedp/cdproto/input"
	json "github.com/json-iterator/go"
)

// clipboardScript installs a one-time copy handler that replaces whatever the
// page would copy with the given payload.
const clipboardScript = `(function(mime, payload) {
	document.addEventListener("copy", function(e) {
		e.preventDefault();
		e.clipboardData.setData(mime, payload);
	});
	return true;
})(%s, %s)`

// scriptJSON encodes script arguments. HTML is left unescaped; the result is
// a JavaScript string literal, not markup.
var scriptJSON = json.Config{EscapeHTML: false}.Froze()

// editingCommands maps Ctrl accelerators to the editor command Chrome runs for
// them. Headless Chrome has no native menu, so the command is sent explicitly.
var editingCommands = map[string]string{
	"a": "selectAll",
	"c": "copy",
	"v": "paste",
	"x": "cut",
	"z": "undo",
}

// clipboardTab is what SetClipboardData needs from a tab.
type clipboardTab interface {
	Evaluator
	KeyDispatcher
}

// SetClipboardData puts payload on the clipboard under mimeType by hooking the
// page's copy event and pressing Ctrl+C.
func SetClipboardData(ctx context.Context, tab clipboardTab, mimeType, payload string) error {
	mimeJSON, err := scriptJSON.Marshal(mimeType)
	if err != nil {
		return fmt.Errorf("failed to encode mime type: %w", err)
	}
	payloadJSON, err := scriptJSON.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode clipboard payload: %w", err)
	}

	var installed bool
	if err := tab.Evaluate(ctx, fmt.Sprintf(clipboardScript, mimeJSON, payloadJSON), &installed); err != nil {
		return transportError("failed to install copy handler", err)
	}
	return Shortcut(ctx, tab, "c")
}

// Shortcut presses Ctrl+key: Control down, key down, key up, Control up.
func Shortcut(ctx context.Context, k KeyDispatcher, key string) error {
	for _, ev := range shortcutEvents(key) {
		if err := k.DispatchKeyEvent(ctx, ev); err != nil {
			return transportError(fmt.Sprintf("failed to press Ctrl+%s", key), err)
		}
	}
	return nil
}

func shortcutEvents(key string) []*input.DispatchKeyEventParams {
	code, vk := keyCode(key)

	keyDown := input.DispatchKeyEvent(input.KeyRawDown).
		WithKey(key).
		WithCode(code).
		WithModifiers(input.ModifierCtrl).
		WithWindowsVirtualKeyCode(vk).
		WithNativeVirtualKeyCode(vk)
	if cmd, ok := editingCommands[strings.ToLower(key)]; ok {
		keyDown = keyDown.WithCommands([]string{cmd})
	}

	return []*input.DispatchKeyEventParams{
		input.DispatchKeyEvent(input.KeyRawDown).
			WithKey("Control").
			WithCode("ControlLeft").
			WithModifiers(input.ModifierCtrl).
			WithWindowsVirtualKeyCode(17).
			WithNativeVirtualKeyCode(17),
		keyDown,
		input.DispatchKeyEvent(input.KeyUp).
			WithKey(key).
			WithCode(code).
			WithModifiers(input.ModifierCtrl).
			WithWindowsVirtualKeyCode(vk).
			WithNativeVirtualKeyCode(vk),
		input.DispatchKeyEvent(input.KeyUp).
			WithKey("Control").
			WithCode("ControlLeft").
			WithWindowsVirtualKeyCode(17).
			WithNativeVirtualKeyCode(17),
	}
}

// keyCode returns the DOM code and Windows virtual key code for a single
// letter or digit. Other keys are sent by name only.
func keyCode(key string) (string, int64) {
	if len(key) != 1 {
		return key, 0
	}
	r := rune(key[0])
	switch {
	case unicode.IsLetter(r):
		upper := unicode.ToUpper(r)
		return "Key" + string(upper), int64(upper)
	case unicode.IsDigit(r):
		return "Digit" + string(r), int64(r)
	default:
		return key, 0
	}
}
