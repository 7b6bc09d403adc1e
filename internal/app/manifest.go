package app

// DefaultManifest lists the application assets relative to the worker script.
var DefaultManifest = []string{
	"index.html",
	"json/dabimasFactor.json",
	"json/brosData.json",
	"css/style.css",
	"css/loading.css",
	"css/materialdesignicons.min.css",
	"css/materialdesignicons.min.css.map",
	"css/notosansjapanese.css",
	"css/vuetify_compact.min.css",
	"css/vuetify.min.css",
	"vue/vue.min.js",
	"vue/vuetify.js",
	"vue/vuetify.js.map",
	"fonts/materialdesignicons-webfont.eot",
	"fonts/materialdesignicons-webfont.ttf",
	"fonts/materialdesignicons-webfont.woff",
	"fonts/materialdesignicons-webfont.woff2",
	"fonts/NotoSansJP-Black.otf",
	"fonts/NotoSansJP-Black.woff",
	"fonts/NotoSansJP-Black.woff2",
	"fonts/NotoSansJP-Bold.otf",
	"fonts/NotoSansJP-Bold.woff",
	"fonts/NotoSansJP-Bold.woff2",
	"fonts/NotoSansJP-DemiLight.otf",
	"fonts/NotoSansJP-DemiLight.woff",
	"fonts/NotoSansJP-DemiLight.woff2",
	"fonts/NotoSansJP-Light.otf",
	"fonts/NotoSansJP-Light.woff",
	"fonts/NotoSansJP-Light.woff2",
	"fonts/NotoSansJP-Medium.otf",
	"fonts/NotoSansJP-Medium.woff",
	"fonts/NotoSansJP-Medium.woff2",
	"fonts/NotoSansJP-Regular.otf",
	"fonts/NotoSansJP-Regular.woff",
	"fonts/NotoSansJP-Regular.woff2",
	"fonts/NotoSansJP-Thin.otf",
	"fonts/NotoSansJP-Thin.woff",
	"fonts/NotoSansJP-Thin.woff2",
}
