package domain

// CarType is the closed set of car skins a player can pick.
type CarType string

const (
	CarRedRace      CarType = "red_race"
	CarBlueSUV      CarType = "blue_suv"
	CarYellowTaxi   CarType = "yellow_taxi"
	CarGreenTractor CarType = "green_tractor"
	CarPinkUFO      CarType = "pink_ufo"
	CarPolice       CarType = "police"
	CarAmbulance    CarType = "ambulance"
	CarFiretruck    CarType = "firetruck"
	CarMonsterTruck CarType = "monster_truck"
	CarBus          CarType = "bus"
	CarSportWhite   CarType = "sport_white"
	CarDeliveryVan  CarType = "delivery_van"
	CarKart         CarType = "kart"
	CarClassicBlue  CarType = "classic_blue"
)

// DefaultCar is assigned on creation and implicit join.
const DefaultCar = CarRedRace

var allCars = []CarType{
	CarRedRace, CarBlueSUV, CarYellowTaxi, CarGreenTractor, CarPinkUFO,
	CarPolice, CarAmbulance, CarFiretruck, CarMonsterTruck, CarBus,
	CarSportWhite, CarDeliveryVan, CarKart, CarClassicBlue,
}

// Cars lists every selectable car in display order.
func Cars() []CarType {
	out := make([]CarType, len(allCars))
	copy(out, allCars)
	return out
}

// Valid reports whether c is a member of the closed set.
func (c CarType) Valid() bool {
	for _, k := range allCars {
		if k == c {
			return true
		}
	}
	return false
}
