package racedto

import "github.com/park285/tap-racer/internal/domain"

// CarDescriptor is what a client needs to draw a car.
type CarDescriptor struct {
	Type  domain.CarType `json:"type"`
	Emoji string         `json:"emoji"`
	Label string         `json:"label"`
}

// Describe maps every car in the closed set to its descriptor. Unknown values
// (for example from an older client) fall back to the default car's look but
// keep their type.
func Describe(car domain.CarType) CarDescriptor {
	switch car {
	case domain.CarRedRace:
		return CarDescriptor{car, "🏎️", "빨간 레이서"}
	case domain.CarBlueSUV:
		return CarDescriptor{car, "🚙", "파란 SUV"}
	case domain.CarYellowTaxi:
		return CarDescriptor{car, "🚕", "노란 택시"}
	case domain.CarGreenTractor:
		return CarDescriptor{car, "🚜", "초록 트랙터"}
	case domain.CarPinkUFO:
		return CarDescriptor{car, "🛸", "분홍 UFO"}
	case domain.CarPolice:
		return CarDescriptor{car, "🚓", "경찰차"}
	case domain.CarAmbulance:
		return CarDescriptor{car, "🚑", "구급차"}
	case domain.CarFiretruck:
		return CarDescriptor{car, "🚒", "소방차"}
	case domain.CarMonsterTruck:
		return CarDescriptor{car, "🚚", "몬스터 트럭"}
	case domain.CarBus:
		return CarDescriptor{car, "🚌", "버스"}
	case domain.CarSportWhite:
		return CarDescriptor{car, "⚪", "하얀 스포츠카"}
	case domain.CarDeliveryVan:
		return CarDescriptor{car, "📦", "택배 밴"}
	case domain.CarKart:
		return CarDescriptor{car, "🏁", "카트"}
	case domain.CarClassicBlue:
		return CarDescriptor{car, "💎", "클래식 블루"}
	}
	d := Describe(domain.DefaultCar)
	d.Type = car
	return d
}

// Garage lists every selectable car in display order.
func Garage() []CarDescriptor {
	cars := domain.Cars()
	out := make([]CarDescriptor, 0, len(cars))
	for _, c := range cars {
		out = append(out, Describe(c))
	}
	return out
}
