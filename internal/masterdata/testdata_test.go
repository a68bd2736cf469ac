package masterdata

// sampleDump is a trimmed phpMyAdmin-style export of the geography tables
const sampleDump = `-- phpMyAdmin SQL Dump
SET SQL_MODE = "NO_AUTO_VALUE_ON_ZERO";
/*!40101 SET NAMES utf8mb4 */;

CREATE TABLE ` + "`address_provinces`" + ` (
  ` + "`id`" + ` int(11) NOT NULL,
  ` + "`name_th`" + ` varchar(150) NOT NULL
);

INSERT INTO ` + "`address_provinces`" + ` (` + "`id`, `name_th`, `name_en`, `geography_id`" + `) VALUES
(1, 'กรุงเทพมหานคร', 'Bangkok', 2),
(41, 'อุดรธานี', 'Udon Thani', 3);

INSERT INTO ` + "`address_districts`" + ` (` + "`id`, `name_th`, `name_en`, `province_id`" + `) VALUES
(1039, 'เขตคลองเตย', 'Khet Khlong Toei', 1),
(1001, 'เขตพระนคร', 'Khet Phra Nakhon', 1),
(4101, 'เมืองอุดรธานี', 'Mueang Udon Thani', 41);

INSERT INTO ` + "`address_sub_districts`" + ` (` + "`id`, `zip_code`, `name_th`, `name_en`, `district_id`" + `) VALUES
(103901, '10110', 'คลองตัน', 'Khlong Tan', 1039),
(100101, '10200', 'พระบรมมหาราชวัง', 'Phra Borom Maha Ratchawang', 1001),
(100102, '10200.0', 'วังบูรพาภิรมย์', 'Wang Burapha Phirom', 1001),
(410101, '41000', 'หมากแข้ง', 'Mak Khaeng', 4101),
(410102, '41000', 'บ้านเลื่อม', 'Ban Lueam', 4101),
(999901, '99999', 'ผี', 'Ghost, Nowhere', 9999),
(410199, 'x', 'เสีย', 'Broken', 4101);
`
