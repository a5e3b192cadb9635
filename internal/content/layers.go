package content

import (
	"image"

	"github.com/pbaille/accent/internal/scene"
)

func at(x, y int) scene.At { return scene.At{X: x, Y: y} }

func leaf(asset string, x, y int) scene.Leaf {
	return scene.Leaf{Asset: "city/" + asset, Position: at(x, y)}
}

func daytime(asset string, x, y int) scene.Leaf {
	l := leaf(asset, x, y)
	l.Rule = scene.Is(PredDaylight)
	return l
}

// CityLayers is the city scene, drawn back to front.
var CityLayers = []scene.Layer{
	// Ground and skyline.
	leaf("PT-water-DYC-01k.gif", 0, 0),
	leaf("PT-GroundIsle-DYC-04k.gif", 0, 0),
	leaf("PT-facstdo-DYC-02k.gif", 262, 9),
	leaf("PT-lightpole-DYC-01k.gif", 130, 5),
	leaf("PT-very-little-gravitas-bldg-01k.gif", 188, 18),
	leaf("PT-dingdongbldg-DYC-04k.gif", 74, 59),
	daytime("PT-van2-DYC-Bus-yp-03k.gif", 156, 116),
	leaf("PT-streetlight-xp-02k.gif", 314, 11),
	leaf("PT-MiniHouseline-03k.gif", 418, 6),
	leaf("PT-HomeHouse-DYC-04k.gif", 422, 36),
	scene.Leaf{
		Asset:       "city/PT-sportsboat-DYC-yp-01k.gif",
		Position:    scene.Line{From: image.Pt(560, 87), To: image.Pt(600, 67)},
		Probability: scene.Chance(80),
	},
	daytime("PT-blockbobcar-DYC-xp-01k.gif", 418, 109),
	leaf("PT-robosuper-DYC-day-03k.gif", 540, 116),
	leaf("PT-centerblock-DYC-day-08k.gif", 200, 6),
	leaf("PT-billboardOne-CoSaNo-02k.gif", 386, 51),
	leaf("PT-3-letter-LED-UFO-01k.gif", 354, 125),
	leaf("PT-streetlight-yp-02k.gif", 168, 125),
	leaf("PT-groupOfRobots-01k.gif", 554, 168),
	scene.Leaf{ID: "streetlight-robosuper", Asset: "city/PT-streetlight-yp-02k.gif", Position: at(516, 119)},
	daytime("PT-Dyna-Delivery-Biker-xm-01k.gif", 500, 142),
	leaf("PT-leftblock-DYC-day-11k.gif", 12, 51),

	// Waterfront.
	leaf("PT-boatydoaty-DYC-yp-02k.gif", 6, 238),
	leaf("PT-bench-DYC-01k.gif", 48, 245),
	leaf("PT-small-motorboat-ym-02k.gif", 12, 261),
	leaf("PT-streetlight-ym-02k.gif", 38, 224),

	// Traffic only runs during the day.
	scene.Group{
		Rule: scene.Is(PredDaylight),
		Layers: []scene.Layer{
			leaf("PT-van-DYC-yp-02k.gif", 412, 164),
			leaf("PT-van2-DYC-Milk-yp-03k.gif", 440, 158),
			leaf("PT-basevan2-DYC-yp-02k.gif", 388, 184),
			leaf("PT-sportscar-DYC-xp-02k.gif", 236, 213),
			leaf("PT-basecar-DYC-y-01k.gif", 152, 266),
		},
	},

	leaf("PT-block-lilstores-DYC-day-05k.gif", 334, 191),
	leaf("PT-cleat-x-01k.gif", 334, 191),
	leaf("PT-robotransportboat-xm-02k.gif", 574, 222),
	leaf("PT-Jetty-DYC-02k.gif", 516, 230),
	scene.Leaf{ID: "streetlight-jetty", Asset: "city/PT-streetlight-yp-02k.gif", Position: at(528, 255)},
	leaf("PT-park-DYC-day-05k.gif", 379, 252),
	leaf("PT-Dyna-Bank-with-Dogs-VAR-02k.gif", 496, 312),
	scene.Leaf{
		Asset:       "city/PT-girlwbird-01k.gif",
		Position:    at(399, 303),
		Rule:        scene.All{PredDaylight, PredClear},
		Probability: scene.Chance(50),
	},
	scene.Leaf{ID: "streetlight-pier", Asset: "city/PT-streetlight-ym-02k.gif", Position: at(294, 218)},
	leaf("PT-block-piershops-DYC-day-02k.gif", 216, 197),
	scene.Leaf{ID: "cleat-pier", Asset: "city/PT-cleat-y-01k.gif", Position: at(400, 346)},

	// One of the two VR players shows up, never both.
	scene.Leaf{
		Asset:       "city/PT-vrguy-A-01k.gif",
		Position:    scene.Choice{image.Pt(217, 298), image.Pt(237, 308)},
		Probability: scene.Chance(50),
	},
	scene.Leaf{
		Asset:    "city/PT-vrguy-B-01k.gif",
		Position: scene.Choice{image.Pt(240, 305), image.Pt(260, 315)},
		Rule:     scene.Else{"city/PT-vrguy-A-01k.gif"},
	},

	leaf("PT-HoneyBucket-DYC-02k.gif", 146, 291),
	leaf("PT-minicyclops-01k.gif", 40, 291),
	scene.Leaf{ID: "cleat-dock-1", Asset: "city/PT-cleat-y-01k.gif", Position: at(10, 309)},
	scene.Leaf{ID: "cleat-dock-2", Asset: "city/PT-cleat-y-01k.gif", Position: at(26, 317)},
	leaf("PT-Cyclops-DYC-04k.gif", 62, 289),
	leaf("PT-xachtx-DYC-xm-02k.gif", 544, 302),
	leaf("PT-yacht-DYC-xm-03k.gif", 506, 334),
	leaf("PT-Dyna-Houseboat-03k.gif", 163, 326),
	scene.Leaf{ID: "streetlight-houseboat", Asset: "city/PT-streetlight-xp-02k.gif", Position: at(216, 322)},

	// Sky.
	scene.Group{
		Rule: scene.Not(PredCloudy),
		Layers: []scene.Layer{
			scene.Leaf{Asset: "city/PT-sun-01k.gif", Position: at(21, 19), Rule: scene.Is(PredDaylight)},
		},
	},
	scene.Group{
		Rule: scene.Any{PredCloudy, PredRainy, PredSnowy, PredPartlyCloudy},
		Layers: []scene.Layer{
			leaf("PT-cloud-one-01k.gif", 523, 5),
			scene.Leaf{
				Asset:    "city/PT-cloud-two-01k.gif",
				Position: at(-43, 41),
				Rule:     scene.Not(PredPartlyCloudy),
			},
		},
	},
}
