package relevance

// designKeywords is the vocabulary used to recognize design-related
// listings. Matching is case-insensitive substring search over the
// listing's text bag.
var designKeywords = []string{
	// Core design terms
	"design",
	"ui",
	"ux",
	"ui/ux",
	"user interface",
	"user experience",
	"graphic design",
	"visual design",
	"web design",
	"mobile design",
	"app design",
	"interface design",
	"product design",
	"brand design",
	"logo design",
	"poster design",
	"banner design",

	// Design tools
	"figma",
	"adobe",
	"photoshop",
	"illustrator",
	"sketch",
	"invision",
	"zeplin",
	"principle",
	"framer",
	"protopie",
	"marvel",
	"balsamiq",
	"wireframe",

	// Design concepts
	"mockup",
	"prototype",
	"prototyping",
	"wireframing",
	"illustration",
	"icon design",
	"typography",
	"color theory",
	"layout",
	"composition",
	"visual hierarchy",
	"responsive design",
	"accessible design",
	"inclusive design",

	// Creative terms
	"creative",
	"artistic",
	"visual",
	"aesthetic",
	"beautiful",
	"modern",
	"minimalist",
	"clean design",
	"pixel perfect",

	// Design categories
	"designing",
	"drawing",
	"painting",
	"digital art",
	"vector art",
	"3d design",
	"animation",
	"motion design",
	"interactive design",
	"game design",
	"fashion design",
	"industrial design",
	"architectural design",

	// Frontend/UI development
	"frontend",
	"css",
	"html",
	"javascript",
	"react",
	"vue",
	"angular",
	"bootstrap",
	"tailwind",
	"material design",
	"design system",
}
