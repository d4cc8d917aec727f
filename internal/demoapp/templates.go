package demoapp

import "html/template"

const layoutHead = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>The Internet</title>
<style>
.flash { padding: 1em; margin-bottom: 1em; }
.flash.success { background: #5da423; color: #fff; }
.flash.error { background: #c60f13; color: #fff; }
#loading { display: none; }
</style>
</head>
<body>
`

const flashBlock = `{{with .}}<div id="flash" class="flash {{.Kind}}">{{.Message}}</div>{{end}}
`

var indexPage = template.Must(template.New("index").Parse(layoutHead + `<h1>Welcome to the-internet</h1>
<ul>
<li><a href="/login">Form Authentication</a></li>
<li><a href="/dynamic_loading/1">Dynamic Loading</a></li>
</ul>
</body>
</html>
`))

var loginPage = template.Must(template.New("login").Parse(layoutHead + flashBlock + `<h2>Login Page</h2>
<form id="login" action="/authenticate" method="post">
<label for="username">Username</label>
<input type="text" name="username" id="username">
<label for="password">Password</label>
<input type="password" name="password" id="password">
<button class="radius" type="submit">Login</button>
</form>
</body>
</html>
`))

var securePage = template.Must(template.New("secure").Parse(layoutHead + flashBlock + `<h2>Secure Area</h2>
<h4 class="subheader">Welcome to the Secure Area.</h4>
<a class="button" href="/logout">Logout</a>
</body>
</html>
`))

var dynamicLoadingPage = template.Must(template.New("dynamic").Parse(layoutHead + `<h3>Dynamically Loaded Page Elements</h3>
<h4>Example 1: Element on page that is hidden</h4>
<div id="start"><button>Start</button></div>
<div id="loading">Loading... </div>
<div id="finish" style="display:none"><h4>Hello World!</h4></div>
<script>
document.querySelector("#start button").addEventListener("click", function () {
  document.getElementById("start").style.display = "none";
  document.getElementById("loading").style.display = "block";
  setTimeout(function () {
    document.getElementById("loading").style.display = "none";
    document.getElementById("finish").style.display = "block";
  }, {{.DelayMillis}});
});
</script>
</body>
</html>
`))
