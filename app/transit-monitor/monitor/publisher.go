package monitor

import (
	"encoding/json"
	"fmt"
	logger "log"

	"github.com/nats-io/nats.go"

	"github.com/philsawicki/public-transit-live-map/business/data/transit"
)

// vehiclePublication is where reconciled vehicle records are sent for
// consumers outside this process.
type vehiclePublication interface {
	Publish(vehicle *transit.Vehicle) error
}

// natsVehiclePublication sends vehicle records over nats
type natsVehiclePublication struct {
	natsConn *nats.Conn
	subject  string
}

func (n *natsVehiclePublication) Publish(vehicle *transit.Vehicle) error {
	jsonData, err := json.Marshal(vehicle)
	if err != nil {
		return fmt.Errorf("error marshaling vehicle to json: %w", err)
	}
	return n.natsConn.Publish(n.subject, jsonData)
}

// UpdatePublisher fans reconciled vehicle updates out to their destination.
// Publication failures are logged and never interrupt a tick.
type UpdatePublisher struct {
	log         *logger.Logger
	destination vehiclePublication
}

// MakeNatsUpdatePublisher creates an UpdatePublisher sending over the NATS
// connection on subject.
func MakeNatsUpdatePublisher(log *logger.Logger, natsConn *nats.Conn, subject string) *UpdatePublisher {
	return makeUpdatePublisher(log, &natsVehiclePublication{natsConn: natsConn, subject: subject})
}

func makeUpdatePublisher(log *logger.Logger, destination vehiclePublication) *UpdatePublisher {
	return &UpdatePublisher{
		log:         log,
		destination: destination,
	}
}

// PublishVehicle sends one reconciled vehicle record.
func (p *UpdatePublisher) PublishVehicle(vehicle *transit.Vehicle) {
	if p == nil {
		return
	}
	if err := p.destination.Publish(vehicle); err != nil {
		p.log.Printf("failed to publish update for vehicle %s: %v", vehicle.ID(), err)
	}
}
