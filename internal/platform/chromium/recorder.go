package chromium

import (
	"encoding/json"
	"time"

	"github.com/ingpoc/ui-test-generation-mcp/internal/platform"
	"github.com/ysmood/gson"
)

// recorderBinding is the page-global function the recorder script reports through.
const recorderBinding = "__uitestRecord"

// recorderJS watches clicks, text entry, selects and key presses and
// reports each as Playwright-style code. Consecutive edits of the same
// field update the previous fill action instead of adding new ones.
const recorderJS = `() => {
	if (window.__uitestRecorderInstalled) return;
	window.__uitestRecorderInstalled = true;

	const send = (kind, name, code) => {
		if (typeof window.__uitestRecord !== 'function') return;
		window.__uitestRecord(JSON.stringify({ kind, name, code, url: location.href }));
	};
	const quote = s => "'" + String(s).replace(/\\/g, '\\\\').replace(/'/g, "\\'").replace(/\n/g, '\\n') + "'";
	const implicitRole = el => {
		const tag = el.tagName.toLowerCase();
		if (tag === 'button') return 'button';
		if (tag === 'a' && el.hasAttribute('href')) return 'link';
		if (tag === 'select') return 'combobox';
		if (tag === 'textarea') return 'textbox';
		if (tag === 'input') {
			const type = (el.getAttribute('type') || 'text').toLowerCase();
			if (type === 'checkbox') return 'checkbox';
			if (type === 'radio') return 'radio';
			if (type === 'submit' || type === 'button' || type === 'reset') return 'button';
			return 'textbox';
		}
		return '';
	};
	const accessibleName = el => {
		const label = el.getAttribute('aria-label');
		if (label) return label.trim();
		if (el.labels && el.labels.length) return el.labels[0].innerText.trim();
		if (el.getAttribute('placeholder')) return el.getAttribute('placeholder');
		const text = (el.innerText || (el.tagName === 'INPUT' ? el.value : '') || '').trim();
		return text.length <= 80 ? text : '';
	};
	const locator = el => {
		const role = el.getAttribute('role') || implicitRole(el);
		const name = accessibleName(el);
		if (role && name) return 'page.getByRole(' + quote(role) + ', { name: ' + quote(name) + ' })';
		if (el.id) return 'page.locator(' + quote('#' + el.id) + ')';
		const text = (el.innerText || '').trim();
		if (text && text.length <= 80) return 'page.getByText(' + quote(text) + ')';
		return 'page.locator(' + quote(el.tagName.toLowerCase()) + ')';
	};
	const isTextField = el => {
		if (el.tagName === 'TEXTAREA' || el.isContentEditable) return true;
		if (el.tagName !== 'INPUT') return false;
		return !['checkbox', 'radio', 'submit', 'button', 'reset', 'file', 'image'].includes((el.type || '').toLowerCase());
	};

	let lastFill = null;
	document.addEventListener('click', e => {
		const target = e.target.closest('button,a,input,select,textarea,label,[role]') || e.target;
		if (!(target instanceof Element) || target.tagName === 'SELECT') return;
		lastFill = null;
		send('added', 'click', 'await ' + locator(target) + '.click();');
	}, true);
	document.addEventListener('input', e => {
		const el = e.target;
		if (!(el instanceof Element) || !isTextField(el)) return;
		const value = el.isContentEditable ? el.innerText : el.value;
		send(lastFill === el ? 'updated' : 'added', 'fill', 'await ' + locator(el) + '.fill(' + quote(value) + ');');
		lastFill = el;
	}, true);
	document.addEventListener('change', e => {
		const el = e.target;
		if (!(el instanceof Element) || el.tagName !== 'SELECT') return;
		lastFill = null;
		const values = Array.from(el.selectedOptions).map(o => quote(o.value));
		const arg = values.length === 1 ? values[0] : '[' + values.join(', ') + ']';
		send('added', 'select', 'await ' + locator(el) + '.selectOption(' + arg + ');');
	}, true);
	document.addEventListener('keydown', e => {
		if (!['Enter', 'Tab', 'Escape'].includes(e.key)) return;
		const el = e.target instanceof Element ? e.target : document.body;
		lastFill = null;
		send('added', 'press', 'await ' + locator(el) + '.press(' + quote(e.key) + ');');
	}, true);
}`

// parseRecorderPayload decodes one report from the recorder script.
func parseRecorderPayload(payload string) (platform.RecorderEvent, bool) {
	if !json.Valid([]byte(payload)) {
		return platform.RecorderEvent{}, false
	}
	j := gson.NewFrom(payload)
	str := func(key string) string {
		v, _ := j.Get(key).Val().(string)
		return v
	}
	name, code := str("name"), str("code")
	if name == "" || code == "" {
		return platform.RecorderEvent{}, false
	}
	ev := platform.RecorderEvent{
		Kind: platform.ActionAdded,
		Name: name,
		URL:  str("url"),
		Code: code,
		Time: time.Now(),
	}
	switch str("kind") {
	case "added":
	case "updated":
		ev.Kind = platform.ActionUpdated
	default:
		return platform.RecorderEvent{}, false
	}
	return ev, true
}

// navigationSignal reports a main-frame navigation seen while recording.
func navigationSignal(pageID, url string) platform.RecorderEvent {
	return platform.RecorderEvent{
		Kind:   platform.SignalAdded,
		PageID: pageID,
		Name:   "navigation",
		URL:    url,
		Time:   time.Now(),
	}
}
