package web

import (
	"html/template"
	"log"
	"net/http"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data := struct {
		DefaultProvider string
		DefaultModel    string
		Languages       []string
	}{
		DefaultProvider: s.opts.DefaultProvider,
		DefaultModel:    s.opts.DefaultModel,
		Languages:       Languages,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		log.Printf("failed to render index: %v", err)
	}
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="zh-Hant">
<head>
<meta charset="utf-8">
<title>📚 創傷知情 AI 家教 (閱讀組)</title>
<style>
body { font-family: sans-serif; max-width: 860px; margin: 0 auto; padding: 16px; }
#chat { border: 1px solid #ccc; border-radius: 8px; padding: 12px; height: 420px; overflow-y: auto; }
.turn { margin: 8px 0; padding: 8px 12px; border-radius: 8px; white-space: pre-wrap; }
.turn.user { background: #e3f2fd; }
.turn.assistant { background: #f1f8e9; }
.error { color: #c62828; }
#sidebar { margin-bottom: 12px; }
#sidebar input, #sidebar select { margin: 4px 8px 4px 0; }
button { margin: 4px 4px 4px 0; }
.hidden { display: none; }
</style>
</head>
<body>
<h1>📚 創傷知情 AI 家教 (閱讀組)</h1>

<div id="loginPane">
  <p>老師您好，我是您的 AI 家教。請先輸入暱稱以開始。</p>
  <input id="identity" placeholder="例如：兆祺心理師...">
  <button onclick="login()">🚀 開始學習</button>
  <p id="loginError" class="error"></p>
</div>

<div id="appPane" class="hidden">
  <div id="sidebar">
    <span id="who"></span>
    <span id="materialStatus"></span><br>
    <input id="apiKey" type="password" placeholder="🔑 API Key">
    <button onclick="loadModels()">載入模型</button>
    <select id="model"><option value="{{.DefaultModel}}">{{.DefaultModel}}</option></select>
    <select id="language">
      {{range .Languages}}<option value="{{.}}">{{.}}</option>{{end}}
    </select><br>
    <button onclick="downloadTranscript()">📥 下載學習紀錄</button>
    <button onclick="logout(false)">📋 上傳紀錄並登出</button>
    <button id="forceLogout" class="hidden" onclick="logout(true)">⚠️ 強制登出（不保存紀錄）</button>
  </div>
  <div id="chat"></div>
  <input id="message" placeholder="詢問概念（例如：什麼是 4F 反應？）..." style="width:70%">
  <button onclick="send()">送出</button>
  <p id="chatError" class="error"></p>
</div>

<script>
let identity = "";

function addTurn(role, content) {
  const div = document.createElement("div");
  div.className = "turn " + role;
  div.textContent = content;
  document.getElementById("chat").appendChild(div);
  div.scrollIntoView();
}

async function login() {
  const resp = await fetch("/api/login", {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify({identity: document.getElementById("identity").value}),
  });
  const data = await resp.json();
  if (!resp.ok) { document.getElementById("loginError").textContent = data.error; return; }
  identity = data.identity;
  document.getElementById("loginPane").classList.add("hidden");
  document.getElementById("appPane").classList.remove("hidden");
  document.getElementById("who").textContent = "👤 學員: " + identity;
  document.getElementById("materialStatus").textContent = data.material_available
    ? "✅ 教材已載入：" + data.material_files.join("、")
    : data.material_status;
  addTurn("assistant", data.welcome);
}

async function loadModels() {
  const key = document.getElementById("apiKey").value;
  const resp = await fetch("/api/models?provider={{.DefaultProvider}}&api_key=" + encodeURIComponent(key));
  const data = await resp.json();
  if (!resp.ok) { document.getElementById("chatError").textContent = data.error; return; }
  const sel = document.getElementById("model");
  sel.innerHTML = "";
  for (const m of data.models) {
    const opt = document.createElement("option");
    opt.value = m; opt.textContent = "🤖 " + m;
    sel.appendChild(opt);
  }
  document.getElementById("chatError").textContent = "";
}

async function send() {
  const input = document.getElementById("message");
  const text = input.value.trim();
  if (!text) return;
  const resp = await fetch("/api/send", {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify({
      identity: identity,
      text: text,
      provider: "{{.DefaultProvider}}",
      api_key: document.getElementById("apiKey").value,
      model: document.getElementById("model").value,
      language: document.getElementById("language").value,
    }),
  });
  const data = await resp.json();
  if (!resp.ok) { document.getElementById("chatError").textContent = data.error; return; }
  document.getElementById("chatError").textContent = "";
  addTurn("user", text);
  addTurn("assistant", data.reply);
  input.value = "";
}

function downloadTranscript() {
  window.location = "/api/transcript?identity=" + encodeURIComponent(identity);
}

async function logout(force) {
  const resp = await fetch("/api/logout", {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify({identity: identity, force: force}),
  });
  const data = await resp.json();
  if (!resp.ok) {
    document.getElementById("chatError").textContent = data.error;
    document.getElementById("forceLogout").classList.remove("hidden");
    return;
  }
  window.location.reload();
}

document.getElementById("message") &&
  document.getElementById("message").addEventListener("keydown", e => {
    if (e.key === "Enter") send();
  });
</script>
</body>
</html>
`))
