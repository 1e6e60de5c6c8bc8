package handler

import (
	"html/template"
	"net/http"
	"strconv"

	"pointshop/internal/service"

	"github.com/gin-gonic/gin"
)

const VerifyTemplateName = "verify.html"

// VerifyTemplate renders the device page. Values are escaped by html/template
// for the JavaScript context they appear in.
var VerifyTemplate = template.Must(template.New(VerifyTemplateName).Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8"/>
<meta name="viewport" content="width=device-width,initial-scale=1"/>
<title>Verify</title>
<style>
body{font-family:Arial;background:#0b1220;color:#fff;display:flex;align-items:center;justify-content:center;min-height:100vh;margin:0}
.card{width:min(520px,92vw);background:#131c2f;border-radius:16px;padding:18px;box-shadow:0 10px 30px rgba(0,0,0,.4)}
button{width:100%;padding:14px;border:0;border-radius:12px;background:#22c55e;color:#04120a;font-weight:700;font-size:16px}
.muted{opacity:.85;font-size:13px;line-height:1.4}
.box{background:#0f172a;border:1px solid rgba(255,255,255,.1);padding:10px;border-radius:12px;margin:12px 0}
</style>
</head>
<body>
<div class="card">
  <h2>Verify Your Device</h2>
  <div class="box muted">1 device can verify only 1 account.</div>
  <button onclick="doVerify()">Verify Now</button>
  <p id="msg" class="muted"></p>
</div>
<script>
function getDeviceId(){
  let id = localStorage.getItem("device_id");
  if(!id){
    id = "dev_" + Math.random().toString(16).slice(2) + "_" + Date.now();
    localStorage.setItem("device_id", id);
  }
  return id;
}
async function doVerify(){
  const device_id = getDeviceId();
  document.getElementById("msg").innerText = "Verifying...";
  const res = await fetch({{.APIURL}}, {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify({account_id: {{.AccountID}}, token: {{.Token}}, device_id})
  });
  const data = await res.json();
  document.getElementById("msg").innerText = data.message || "Done";
  if(data.ok){
    setTimeout(()=>{ window.location.href = {{.BotURL}}; }, 900);
  }
}
</script>
</body>
</html>
`))

type VerifyHandler struct {
	verifySvc *service.VerificationService
	baseURL   string
	botURL    string
}

func NewVerifyHandler(verifySvc *service.VerificationService, baseURL, botUsername string) *VerifyHandler {
	return &VerifyHandler{verifySvc: verifySvc, baseURL: baseURL, botURL: "https://t.me/" + botUsername}
}

// Page handles GET /verify?account_id=&token=.
func (h *VerifyHandler) Page(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("account_id"), 10, 64)
	token := c.Query("token")
	if err != nil || !h.verifySvc.CheckToken(id, token) {
		c.String(http.StatusForbidden, "Invalid verify link")
		return
	}
	c.HTML(http.StatusOK, VerifyTemplateName, gin.H{
		"APIURL":    h.baseURL + "/verify/api",
		"AccountID": id,
		"Token":     token,
		"BotURL":    h.botURL,
	})
}

// Consume handles POST /verify/api.
func (h *VerifyHandler) Consume(c *gin.Context) {
	var req struct {
		AccountID int64  `json:"account_id"`
		Token     string `json:"token"`
		DeviceID  string `json:"device_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Bad request")
		return
	}
	if err := h.verifySvc.ConsumeVerification(c.Request.Context(), req.AccountID, req.Token, req.DeviceID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Verified successfully", "bot_url": h.botURL})
}

// Link handles GET /api/v1/bot/accounts/:id/verify-link.
func (h *VerifyHandler) Link(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	link, err := h.verifySvc.VerificationLink(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "link": link})
}

