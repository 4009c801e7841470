package catalog

type LanguagesResponse struct {
	Languages []string `json:"languages"`
	Default   string   `json:"default"`
}

type FrameworksResponse struct {
	Language   string   `json:"language"`
	Frameworks []string `json:"frameworks"`
}
