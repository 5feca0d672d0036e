package weather

// Presentation is how a condition code is shown in the widget
type Presentation struct {
	Icon       string `json:"icon"`
	Background string `json:"background"`
	Label      string `json:"label"`
}

const (
	DefaultIcon       = "clear.png"
	DefaultBackground = "climate.png"
)

var conditionTable = map[string]Presentation{
	"Clear":        {Icon: "clear.png", Background: "sunny.jpeg", Label: "Sunny"},
	"Clouds":       {Icon: "clouds.png", Background: "cloudy.jpg", Label: "Cloudy"},
	"Rain":         {Icon: "rain.png", Background: "rainy.jpg", Label: "Rainy"},
	"Drizzle":      {Icon: "drizzle.png", Background: "driz.jpg", Label: "Drizzle"},
	"Snow":         {Icon: "snow.png", Background: "snowy.jpg", Label: "Snowy"},
	"Thunderstorm": {Icon: "thunderIcon.png", Background: "thunderStorm.jpg", Label: "Thunderstorm"},
	"Tornado":      {Icon: "tornadoIcon.png", Background: "tornado.jpg", Label: "Tornado"},
	"Mist":         {Icon: "haze.png", Background: "misty.webp", Label: "Misty"},
	"Fog":          {Icon: "haze.png", Background: "misty.webp", Label: "Foggy"},
	"Haze":         {Icon: "haze.png", Background: "misty.webp", Label: "Hazy"},
	"Smoke":        {Icon: "haze.png", Background: "misty.webp", Label: "Smoky"},
}

// Present maps a condition code to its icon, background and label.
// Matching is exact. Unknown codes get the default assets and keep the code as label.
func Present(code string) Presentation {
	if p, ok := conditionTable[code]; ok {
		return p
	}
	return Presentation{
		Icon:       DefaultIcon,
		Background: DefaultBackground,
		Label:      code,
	}
}

// WithPrefix returns a copy with both asset names placed under prefix
func (p Presentation) WithPrefix(prefix string) Presentation {
	p.Icon = prefix + p.Icon
	p.Background = prefix + p.Background
	return p
}
