package main

import (
	"flag"
	"log"
	"strings"
	"time"

	"github.com/mikesmitty/ms58xx"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

var models = map[string]ms58xx.Model{
	"ms5803-02ba": ms58xx.MS5803_02BA,
	"ms5803-05ba": ms58xx.MS5803_05BA,
	"ms5803-07ba": ms58xx.MS5803_07BA,
	"ms5803-14ba": ms58xx.MS5803_14BA,
	"ms5803-30ba": ms58xx.MS5803_30BA,
	"ms5805-02ba": ms58xx.MS5805_02BA,
	"ms5806-02ba": ms58xx.MS5806_02BA,
	"ms5837-30ba": ms58xx.MS5837_30BA,
}

func main() {
	bus := flag.String("bus", "", "Name of the I²C bus")
	modelFlag := flag.String("model", "", "Sensor model (e.g. MS5803-14BA)")
	alt := flag.Bool("alt-addr", false, "Use the secondary I²C address (0x77)")
	osr := flag.Uint("osr", 4096, "Oversampling ratio")
	flag.Parse()

	_, err := host.Init()
	if err != nil {
		log.Fatal(err)
	}

	b, err := i2creg.Open(*bus)
	if err != nil {
		log.Fatal(err)
	}
	defer b.Close()

	model, ok := models[strings.ToLower(*modelFlag)]
	if !ok {
		log.Fatal("Invalid sensor model")
	}

	opts := ms58xx.DefaultOpts(model)
	opts.OSR = uint16(*osr)
	if *alt {
		opts.Addr = ms58xx.Addr1
	}

	dev, err := ms58xx.New(b, opts)
	if err != nil {
		log.Fatal(err)
	}

	ticker := time.NewTicker(1 * time.Second)

	for {
		var e physic.Env
		err = dev.Sense(&e)
		if err != nil {
			log.Print(err)
		}
		log.Printf("Temperature: %s Pressure: %s", e.Temperature, e.Pressure)

		<-ticker.C
	}
}
